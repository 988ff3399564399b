package crawler

import "math/rand"

// seedBank groups the crawl seed keywords by domain so every cycle covers
// finance, politics, tech and society even at small seed counts. The
// randomized selection also keeps the access pattern from looking like a
// fixed-schedule scraper.
var seedBank = []struct {
	domain string
	words  []string
}{
	{"财经", []string{
		"A股", "港股", "美股", "基金", "理财", "投资", "股票", "上市", "涨停", "跌停",
		"央行", "利率", "GDP", "通胀", "降息", "加息", "比特币", "数字货币", "黄金",
		"石油", "房价", "楼市", "经济", "金融", "银行", "保险", "期货", "外汇",
		"融资", "并购", "创业", "IPO", "独角兽", "新能源", "光伏", "锂电池",
	}},
	{"政治", []string{
		"两会", "政策", "改革", "外交", "制裁", "选举", "立法", "国务院", "人大",
		"国防", "军事", "台湾", "南海", "一带一路", "中美", "中俄", "北约",
		"联合国", "峰会", "总统", "领导人", "协议", "条约",
	}},
	{"科技", []string{
		"AI", "人工智能", "大模型", "ChatGPT", "DeepSeek", "芯片", "半导体",
		"5G", "6G", "自动驾驶", "机器人", "量子计算", "航天", "火箭", "卫星",
		"华为", "苹果", "特斯拉", "小米", "手机", "新品", "发布会",
		"区块链", "Web3", "元宇宙", "AGI", "Sora", "视觉大模型",
	}},
	{"社会", []string{
		"教育", "医疗", "就业", "房价", "房租", "生育", "养老", "退休",
		"考公", "考研", "高考", "内卷", "裁员", "降薪", "跳槽",
		"消费", "物价", "旅游", "春运", "电影", "综艺", "热剧",
	}},
}

// SelectSeeds picks n seed keywords, at least two per domain, shuffled.
func SelectSeeds(n int, rng *rand.Rand) []string {
	if n <= 0 {
		return nil
	}
	perDomain := n / len(seedBank)
	if perDomain < 2 {
		perDomain = 2
	}

	var selected []string
	for _, group := range seedBank {
		k := perDomain
		if k > len(group.words) {
			k = len(group.words)
		}
		for _, idx := range rng.Perm(len(group.words))[:k] {
			selected = append(selected, group.words[idx])
		}
	}

	rng.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})
	if len(selected) > n {
		selected = selected[:n]
	}
	return selected
}
