package nlp

import "strings"

// Stopword groups. Tokens are matched lowercased, so English entries are
// stored lowercase.

// commonStopwords are Chinese function words and generic filler.
var commonStopwords = strings.Fields(`
的 了 在 是 我 有 和 就 不 人 都 一 一个 上 也 很 到 说 要 去 你
会 着 没有 看 好 自己 这 他 她 它 们 那 些 什么 于 能 吗 又 与
把 从 其 比 只 之 对 为 通过 而 可以 被 开始 以 已 但 所 让 更
将 应 该 行 向 下 然 年月日 时 中 还 里 后 没 最 第 如 因 不是
等 就是 呢 吧 能够 怎么 为什么 怎样 这样 那样 这个 那个 可能
包括 成为 因为 所以 虽然 但是 然后 或者 而且 因此 否则 另外
同时 然而 此外 以及 相关 关于 已经 正在 需要 进行 或
来自 之间 其中 方面 过程 结构 地区 问题 工作 部分
原来 目前 今天 昨天 明天 今年 去年 今日 记者 报道 据悉
`)

// socialStopwords are social-platform noise words that never name a topic.
var socialStopwords = strings.Fields(`
哈哈 哈哈哈 hhh 笑死 绝了 太好了 真的 好的 不错 求 想
赞 顶 沙发 前排 收藏 转发 关注 点赞 评论 分享 链接
视频 图片 直播 发布 更新 推荐 热门 热搜 最新 速看 震惊
`)

// categoryStopwords are section labels, not topics themselves.
var categoryStopwords = strings.Fields(`
时事 财经 国际 科技 政治 政经 社会 娱乐 体育 军事 教育 文化
新闻 快讯 头条 资讯 热点 消息 事件 简讯 要闻 早报 晚报
`)

// englishStopwords are English function words plus news boilerplate.
var englishStopwords = strings.Fields(`
the a an is are was were be been being have has had do does did
will would shall should can could may might must need dare
to of in for on with at by from as into through during before
after above below between out off over under again further then
once here there when where why how all each every both few more
most other some such no nor not only own same so than too very
and but or if while because until although since about
it its he his she her they them their we our you your
this that these those what which who whom whose
much many just also back even still
said says new report year years month day time people
`)

// stopwordSet is the union of all groups, keyed lowercase.
var stopwordSet = buildStopwords()

func buildStopwords() map[string]struct{} {
	set := make(map[string]struct{})
	for _, group := range [][]string{commonStopwords, socialStopwords, categoryStopwords, englishStopwords} {
		for _, w := range group {
			set[strings.ToLower(w)] = struct{}{}
		}
	}
	return set
}

// IsStopword reports whether the token is in the combined stopword set.
// Matching is case-insensitive.
func IsStopword(word string) bool {
	_, ok := stopwordSet[strings.ToLower(word)]
	return ok
}
