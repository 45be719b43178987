package youtube

import (
	"strings"
	"time"
)

// Label pairs a YouTube API value with the names a client may use for it.
type Label struct {
	Value  string `json:"value"`
	Name   string `json:"name"`
	Korean string `json:"korean"`
}

func (l Label) matches(s string) bool {
	return strings.EqualFold(s, l.Value) || strings.EqualFold(s, l.Name) || s == l.Korean
}

func resolve(labels []Label, s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	for _, l := range labels {
		if l.matches(s) {
			return l.Value
		}
	}
	return def
}

var Categories = []Label{
	{"", "All", "전체"},
	{"1", "Film & Animation", "영화 및 애니메이션"},
	{"2", "Autos & Vehicles", "자동차 및 차량"},
	{"10", "Music", "음악"},
	{"15", "Pets & Animals", "애완동물 및 동물"},
	{"17", "Sports", "스포츠"},
	{"19", "Travel & Events", "여행 및 이벤트"},
	{"20", "Gaming", "게임"},
	{"22", "People & Blogs", "인물 및 블로그"},
	{"23", "Comedy", "코미디"},
	{"24", "Entertainment", "엔터테인먼트"},
	{"25", "News & Politics", "뉴스 및 정치"},
	{"26", "Howto & Style", "노하우 및 스타일"},
	{"27", "Education", "교육"},
	{"28", "Science & Technology", "과학 기술"},
	{"29", "Nonprofits & Activism", "비영리 및 사회운동"},
}

var Countries = []Label{
	{"KR", "Korea", "한국"},
	{"US", "United States", "미국"},
	{"JP", "Japan", "일본"},
	{"CN", "China", "중국"},
	{"ES", "Spain", "스페인"},
	{"IN", "India", "인도"},
	{"GB", "Europe", "유럽"},
	{"TH", "Southeast Asia", "동남아"},
}

var Orders = []Label{
	{"relevance", "Relevance", "관련성"},
	{"viewCount", "Views", "조회수"},
	{"date", "Upload date", "업로드 날짜"},
}

var Durations = []Label{
	{"short", "Shorts", "쇼츠"},
	{"medium", "Medium", "중간 길이"},
	{"long", "Long", "긴 영상"},
}

var Licenses = []Label{
	{"", "Any", "전체"},
	{"creativeCommon", "Creative Commons", "크리에이티브 커먼즈"},
	{"youtube", "Standard", "표준 라이센스"},
}

// Periods maps the accepted upload windows to their age in days.
var Periods = []struct {
	Label
	Days int
}{
	{Label{"7d", "Last 7 days", "7일 이내"}, 7},
	{Label{"1m", "Last month", "1개월 이내"}, 30},
	{Label{"3m", "Last 3 months", "3개월 이내"}, 90},
	{Label{"6m", "Last 6 months", "6개월 이내"}, 180},
	{Label{"12m", "Last 12 months", "12개월 이내"}, 365},
}

const DefaultCountry = "KR"

func CategoryID(s string) string { return resolve(Categories, s, "") }

// RegionCode accepts a country label or an ISO region code and defaults to
// KR for anything unknown.
func RegionCode(s string) string {
	if code := resolve(Countries, s, ""); code != "" {
		return code
	}
	s = strings.TrimSpace(s)
	if len(s) == 2 {
		return strings.ToUpper(s)
	}
	return DefaultCountry
}

func OrderValue(s string) string    { return resolve(Orders, s, "relevance") }
func DurationValue(s string) string { return resolve(Durations, s, "") }
func LicenseValue(s string) string  { return resolve(Licenses, s, "") }

// PublishedAfter returns the RFC 3339 lower bound for period, or "" when the
// period is unset or unknown.
func PublishedAfter(period string, now time.Time) string {
	period = strings.TrimSpace(period)
	if period == "" {
		return ""
	}
	for _, p := range Periods {
		if p.matches(period) {
			return now.UTC().AddDate(0, 0, -p.Days).Format(time.RFC3339)
		}
	}
	return ""
}
