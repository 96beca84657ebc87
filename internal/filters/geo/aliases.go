package geo

// DefaultAliases maps canonical country names to the names, demonyms and
// major cities that identify them in free text.
var DefaultAliases = map[string][]string{
	"india":       {"india", "indian", "new delhi", "mumbai", "bangalore", "delhi", "kolkata", "chennai"},
	"pakistan":    {"pakistan", "pakistani", "islamabad", "karachi", "lahore", "rawalpindi"},
	"china":       {"china", "chinese", "beijing", "shanghai", "guangzhou", "shenzhen", "prc", "people's republic"},
	"bangladesh":  {"bangladesh", "bangladeshi", "dhaka", "chittagong"},
	"sri lanka":   {"sri lanka", "sri lankan", "colombo", "kandy"},
	"myanmar":     {"myanmar", "burma", "burmese", "yangon", "naypyidaw"},
	"thailand":    {"thailand", "thai", "bangkok", "chiang mai"},
	"vietnam":     {"vietnam", "vietnamese", "hanoi", "ho chi minh", "saigon"},
	"cambodia":    {"cambodia", "cambodian", "phnom penh"},
	"laos":        {"laos", "lao", "vientiane"},
	"malaysia":    {"malaysia", "malaysian", "kuala lumpur", "penang"},
	"indonesia":   {"indonesia", "indonesian", "jakarta", "bali", "surabaya"},
	"philippines": {"philippines", "filipino", "manila", "cebu"},
	"singapore":   {"singapore", "singaporean"},
	"nepal":       {"nepal", "nepalese", "kathmandu"},
	"afghanistan": {"afghanistan", "afghan", "kabul"},
	"kenya":       {"kenya", "kenyan", "nairobi", "mombasa"},
	"uganda":      {"uganda", "ugandan", "kampala"},
	"ethiopia":    {"ethiopia", "ethiopian", "addis ababa"},
	"nigeria":     {"nigeria", "nigerian", "abuja", "lagos"},
}

var globalIndicators = []string{"global", "international", "worldwide", "remote", "virtual"}
