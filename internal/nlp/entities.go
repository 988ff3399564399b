package nlp

// Closed dictionaries for rule-based entity lookup. Full NER is out of
// proportion for trending keywords; a dictionary intersection catches the
// names that actually trend.

var personDict = newSet(
	"习近平", "特朗普", "拜登", "普京", "马斯克", "马克龙",
	"岸田", "泽连斯基", "莫迪", "李强", "王毅", "布林肯",
	"比尔盖茨", "扎克伯格", "黄仁勋", "任正非", "马云",
)

var locationDict = newSet(
	"北京", "上海", "深圳", "广州", "杭州", "成都", "武汉",
	"美国", "中国", "日本", "韩国", "俄罗斯", "欧洲", "台湾",
	"华盛顿", "纽约", "伦敦", "东京", "莫斯科", "巴黎",
	"加沙", "以色列", "乌克兰", "叙利亚", "伊朗", "朝鲜",
)

var orgDict = newSet(
	"央行", "美联储", "欧央行", "国务院", "发改委", "外交部",
	"联合国", "北约", "欧盟", "世卫组织", "世贸组织", "亚投行",
	"人大", "政协", "最高法", "最高检",
)

var brandDict = newSet(
	"华为", "苹果", "特斯拉", "小米", "腾讯", "阿里", "字节跳动",
	"百度", "OpenAI", "谷歌", "微软", "英伟达", "台积电",
	"比亚迪", "宁德时代", "中芯国际", "理想", "蔚来", "小鹏",
)

func newSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Entities groups recognized named entities by kind.
type Entities struct {
	Persons       []string `json:"persons"`
	Locations     []string `json:"locations"`
	Organizations []string `json:"organizations"`
	Brands        []string `json:"brands"`
}

// ExtractEntities intersects the text's tokens with the entity
// dictionaries. Results preserve token order, deduplicated.
func (p *Pipeline) ExtractEntities(text string) Entities {
	tokens := p.Tokenize(text, 2)
	return Entities{
		Persons:       intersect(tokens, personDict),
		Locations:     intersect(tokens, locationDict),
		Organizations: intersect(tokens, orgDict),
		Brands:        intersect(tokens, brandDict),
	}
}

func intersect(tokens []string, dict map[string]struct{}) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, tok := range tokens {
		if _, ok := dict[tok]; !ok {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
