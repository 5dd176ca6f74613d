package expand

// Static expansion tables. Keys are lowercase; lookups fall back to the raw
// filter value so unknown industries/locations/titles still produce queries.

var industrySynonyms = map[string][]string{
	"real estate": {"real estate agents", "realtors", "real estate brokers", "property managers", "realty companies"},
	"healthcare":  {"dentists", "doctors", "physicians", "medical practices", "healthcare providers"},
	"legal":       {"lawyers", "attorneys", "law firms", "legal services"},
	"finance":     {"financial advisors", "accountants", "cpa firms", "wealth management"},
	"marketing":   {"marketing agencies", "digital marketing", "advertising agencies", "pr firms"},
	"technology":  {"software companies", "it services", "tech startups", "web development"},
	"construction": {"contractors", "construction companies", "home builders", "renovation companies"},
	"restaurant":  {"restaurants", "cafes", "catering companies", "bars"},
	"retail":      {"retail stores", "boutiques", "ecommerce companies"},
	"education":   {"schools", "universities", "tutoring centers", "training programs"},
}

var locationVariants = map[string][]string{
	"florida":    {"Florida", "FL", "Miami", "Orlando", "Tampa"},
	"california": {"California", "CA", "Los Angeles", "San Francisco", "San Diego"},
	"texas":      {"Texas", "TX", "Houston", "Dallas", "Austin"},
	"new york":   {"New York", "NY", "New York City", "Brooklyn"},
	"illinois":   {"Illinois", "IL", "Chicago"},
	"georgia":    {"Georgia", "GA", "Atlanta"},
	"washington": {"Washington", "WA", "Seattle"},
	"usa":        {"USA", "United States"},
	"uk":         {"UK", "United Kingdom", "London"},
	"canada":     {"Canada", "Toronto", "Vancouver"},
}

var titleExpansions = map[string][]string{
	"ceo":      {"CEO", "Chief Executive Officer", "President"},
	"cfo":      {"CFO", "Chief Financial Officer"},
	"cto":      {"CTO", "Chief Technology Officer"},
	"cmo":      {"CMO", "Chief Marketing Officer"},
	"vp":       {"VP", "Vice President"},
	"owner":    {"Owner", "Founder", "Proprietor"},
	"founder":  {"Founder", "Co-Founder"},
	"director": {"Director", "Managing Director"},
	"manager":  {"Manager", "General Manager"},
	"broker":   {"Broker", "Managing Broker", "Principal Broker"},
}
