package keyword

// DefaultWeights is the relevance weight of each built-in keyword.
// Its total is the normaliser of the keyword score.
var DefaultWeights = map[string]float64{
	"video":          1.0,
	"multimedia":     1.0,
	"film":           1.0,
	"animation":      1.0,
	"audiovisual":    1.0,
	"photo":          0.8,
	"design":         0.8,
	"visual":         0.8,
	"media":          0.8,
	"communication":  0.8,
	"campaign":       0.6,
	"podcasts":       0.6,
	"virtual event":  0.6,
	"promotion":      0.6,
	"animated video": 1.0,
}

// DefaultVariants lists related surface forms that count as a keyword hit.
var DefaultVariants = map[string][]string{
	"video":         {"videos", "videography", "video production"},
	"photo":         {"photos", "photography", "photographic"},
	"film":          {"films", "filming", "filmmaking"},
	"design":        {"designs", "designing", "designer"},
	"media":         {"multimedia", "social media"},
	"animation":     {"animations", "animated", "animator"},
	"communication": {"communications", "comms"},
	"campaign":      {"campaigns", "campaigning"},
	"visual":        {"visuals", "visualization"},
	"audiovisual":   {"audio-visual", "av", "audio visual"},
}

// unknownKeywordWeight applies to configured keywords missing from the weight table.
const unknownKeywordWeight = 0.5
