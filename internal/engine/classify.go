package engine

import "strings"

// Trend categories, checked in priority order: a keyword matching both a
// finance and a tech marker classifies as finance.
const (
	CategoryFinance       = "财经"
	CategoryPolitics      = "政治"
	CategoryTech          = "科技"
	CategoryInternational = "国际"
	CategoryCurrent       = "时事"
)

var categoryMarkers = []struct {
	category string
	markers  []string
}{
	{CategoryFinance, []string{
		"股", "基金", "理财", "投资", "财经", "上市", "涨停", "跌停",
		"A股", "港股", "美股", "央行", "利率", "GDP", "经济", "金融",
		"银行", "保险", "期货", "比特币", "数字货币", "黄金", "石油",
		"房价", "楼市", "消费", "出口", "进口", "贸易",
	}},
	{CategoryPolitics, []string{
		"政治", "政府", "政策", "外交", "制裁", "选举", "军事", "国防",
		"总统", "领导", "改革", "法案", "条约", "两会",
	}},
	{CategoryTech, []string{
		"AI", "人工智能", "芯片", "半导体", "大模型", "机器人", "科技",
		"互联网", "手机", "华为", "苹果", "新能源", "自动驾驶", "量子",
	}},
	{CategoryInternational, []string{
		"美国", "俄罗斯", "日本", "韩国", "欧洲", "中东", "以色列",
		"乌克兰", "北约", "联合国", "国际", "全球",
	}},
}

// Classify assigns a keyword to a category by substring markers, falling
// back to current affairs.
func Classify(keyword string) string {
	for _, group := range categoryMarkers {
		for _, marker := range group.markers {
			if strings.Contains(keyword, marker) {
				return group.category
			}
		}
	}
	return CategoryCurrent
}
