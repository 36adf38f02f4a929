// Package catalog holds the compiled-in subject taxonomy used to normalize
// and validate document profiles produced by the profiler.
package catalog

import (
	"strings"

	"github.com/gy212/cheekai-detect/internal/model"
)

const Year = 2022

// categoryDisciplines is the fixed 14-entry discipline taxonomy, keyed by
// canonical category name. Entries are representative rather than
// exhaustive: the discipline sets are used only to score validity, not to
// enumerate every possible discipline a document could declare.
var categoryDisciplines = map[string][]string{
	"哲学":     {"哲学", "伦理学", "逻辑学", "美学", "宗教学"},
	"经济学":    {"经济学", "金融学", "国际经济与贸易", "财政学", "统计学"},
	"法学":     {"法学", "政治学", "社会学", "民族学", "公安学"},
	"教育学":    {"教育学", "心理学", "体育学"},
	"文学":     {"中国语言文学", "外国语言文学", "新闻传播学"},
	"历史学":    {"历史学", "考古学", "文物与博物馆学"},
	"理学":     {"数学", "物理学", "化学", "生物学", "天文学", "地理科学"},
	"工学":     {"计算机科学与技术", "信息与通信工程", "机械工程", "土木工程", "电子科学与技术", "软件工程"},
	"农学":     {"农学", "林学", "畜牧学", "兽医学", "水产"},
	"医学":     {"临床医学", "护理学", "药学", "公共卫生与预防医学", "中医学"},
	"军事学":    {"军事思想", "军事后勤学", "军事训练学"},
	"管理学":    {"工商管理", "图书情报与档案管理", "公共管理", "管理科学与工程"},
	"艺术学":    {"音乐与舞蹈学", "戏剧与影视学", "美术学", "设计学"},
	"交叉学科":   {"集成电路科学与工程", "国家安全学", "区域国别学"},
}

// categorySubstrings maps recognised substrings to the canonical category
// they normalize to, checked in order.
var categorySubstrings = []struct {
	substr   string
	category string
}{
	{"哲学", "哲学"},
	{"经济", "经济学"},
	{"法学", "法学"}, {"法律", "法学"}, {"政治", "法学"}, {"社会", "法学"},
	{"教育", "教育学"},
	{"文学", "文学"}, {"语言", "文学"}, {"新闻", "文学"}, {"传播", "文学"},
	{"历史", "历史学"},
	{"数学", "理学"}, {"物理", "理学"}, {"化学", "理学"}, {"生物", "理学"}, {"理学", "理学"},
	{"工程", "工学"}, {"计算机", "工学"}, {"信息", "工学"},
	{"农", "农学"}, {"林", "农学"}, {"畜", "农学"}, {"兽", "农学"}, {"水产", "农学"},
	{"医", "医学"}, {"临床", "医学"}, {"护理", "医学"}, {"药", "医学"}, {"公共卫生", "医学"},
	{"军事", "军事学"},
	{"管理", "管理学"}, {"工商", "管理学"}, {"图书", "管理学"}, {"档案", "管理学"},
	{"艺术", "艺术学"}, {"设计", "艺术学"}, {"音乐", "艺术学"}, {"戏剧", "艺术学"}, {"舞蹈", "艺术学"},
	{"交叉", "交叉学科"},
}

var paperTypeSubstrings = []string{
	"论文", "综述", "研究", "实验", "报告", "期刊", "学位",
	"thesis", "paper", "research", "journal",
}

var discipline2category = func() map[string]string {
	m := make(map[string]string)
	for cat, disciplines := range categoryDisciplines {
		for _, d := range disciplines {
			if _, exists := m[d]; !exists {
				m[d] = cat
			}
		}
	}
	return m
}()

func isKnownCategory(cat string) bool {
	_, ok := categoryDisciplines[cat]
	return ok
}

// NormalizeCategory maps a raw category string (possibly the model's own
// free-text guess) onto the canonical 14-domain taxonomy using substring
// matching, falling back to 交叉学科. If the raw value instead looks like a
// paper-type string, the second return value is true and category should be
// treated as empty; callers move the raw value into PaperType.
func NormalizeCategory(raw string) (category string, looksLikePaperType bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "交叉学科", false
	}
	lower := strings.ToLower(trimmed)
	for _, pt := range paperTypeSubstrings {
		if strings.Contains(lower, strings.ToLower(pt)) {
			return "", true
		}
	}
	if isKnownCategory(trimmed) {
		return trimmed, false
	}
	for _, entry := range categorySubstrings {
		if strings.Contains(trimmed, entry.substr) {
			return entry.category, false
		}
	}
	return "交叉学科", false
}

// ValidateDocumentProfile normalizes p.Category against the taxonomy,
// attempts a discipline_to_category correction when the category lands in
// 交叉学科 but the discipline is recognised elsewhere, and sets p.Validity.
func ValidateDocumentProfile(p *model.DocumentProfile) model.ProfileValidity {
	category := strings.TrimSpace(p.Category)
	if !isKnownCategory(category) {
		category = "交叉学科"
	}
	p.Category = category

	disciplineValid := false
	discipline := strings.TrimSpace(p.Discipline)
	if discipline != "" {
		if set, ok := categoryDisciplines[p.Category]; ok {
			disciplineValid = containsString(set, discipline)
		}
		if !disciplineValid && p.Category == "交叉学科" {
			if found, ok := discipline2category[discipline]; ok {
				p.Category = found
				if set, ok := categoryDisciplines[found]; ok {
					disciplineValid = containsString(set, discipline)
				}
			}
		}
	}

	var validity model.ProfileValidity
	switch {
	case !isKnownCategory(p.Category):
		validity = model.ValidityInvalid
	case disciplineValid:
		validity = model.ValidityValid
	default:
		validity = model.ValidityPartial
	}
	p.Validity = validity
	return validity
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// AcademicStrength maps a document profile into the three-valued {0, 0.6,
// 1.0} academic-strength multiplier used to discount structural-evidence
// penalties: full strength for a validated academic profile, 0.6 for a
// partial discipline match, zero otherwise (including non-academic writing).
func AcademicStrength(p *model.DocumentProfile) float64 {
	if p == nil || !IsAcademic(*p) {
		return 0
	}
	switch p.Validity {
	case model.ValidityValid:
		return 1.0
	case model.ValidityPartial:
		return 0.6
	default:
		return 0
	}
}

// IsAcademic reports whether a (validated) profile should be treated as
// academic writing for the purposes of the academic-strength discounts
// applied downstream in fusion.
func IsAcademic(p model.DocumentProfile) bool {
	if p.Validity == model.ValidityInvalid {
		return false
	}
	hasDiscipline := strings.TrimSpace(p.Discipline) != "" || strings.TrimSpace(p.Subfield) != ""
	paperLower := strings.ToLower(p.PaperType)
	for _, pt := range paperTypeSubstrings {
		if strings.Contains(paperLower, strings.ToLower(pt)) {
			return true
		}
	}
	return isKnownCategory(p.Category) && hasDiscipline
}
