package namematch

// NicknameTable maps formal first names to common diminutives.
// Lookup is symmetric: "mike" resolves "michael" and vice versa.
// Versioned so tests can pin or swap the table wholesale.
type NicknameTable struct {
	Version string
	byName  map[string][]string
}

// DefaultNicknames is the table shipped with the matcher. Keys and
// values are normalized (lower-case) first names.
func DefaultNicknames() NicknameTable {
	formal := map[string][]string{
		"michael":     {"mike", "mick"},
		"william":     {"will", "bill", "billy", "liam"},
		"robert":      {"rob", "bob", "bobby"},
		"james":       {"jim", "jimmy", "jamie"},
		"christopher": {"chris"},
		"christian":   {"chris"},
		"anthony":     {"tony"},
		"joshua":      {"josh"},
		"matthew":     {"matt"},
		"daniel":      {"dan", "danny"},
		"david":       {"dave"},
		"joseph":      {"joe", "joey"},
		"thomas":      {"tom", "tommy"},
		"charles":     {"charlie", "chuck"},
		"kenneth":     {"ken", "kenny"},
		"stephen":     {"steve"},
		"steven":      {"steve"},
		"richard":     {"rich", "rick", "ricky"},
		"edward":      {"ed", "eddie"},
		"benjamin":    {"ben"},
		"zachary":     {"zach", "zack"},
		"nicholas":    {"nick"},
		"jonathan":    {"jon"},
		"nathaniel":   {"nate"},
		"nathan":      {"nate"},
		"alexander":   {"alex"},
		"cameron":     {"cam"},
		"demetrius":   {"meech"},
		"isaiah":      {"zay"},
		"jeffery":     {"jeff"},
		"jeffrey":     {"jeff"},
		"gregory":     {"greg"},
		"timothy":     {"tim"},
		"patrick":     {"pat"},
		"samuel":      {"sam"},
		"maxwell":     {"max"},
		"theodore":    {"theo", "ted"},
		"elijah":      {"eli"},
		"gabriel":     {"gabe"},
	}

	byName := make(map[string][]string, len(formal)*2)
	for name, aliases := range formal {
		byName[name] = append(byName[name], aliases...)
		for _, alias := range aliases {
			byName[alias] = append(byName[alias], name)
		}
	}

	return NicknameTable{
		Version: "2025-08",
		byName:  byName,
	}
}

// Match reports whether two normalized first names are the same person
// by nickname. Order-independent.
func (t NicknameTable) Match(a, b string) bool {
	if a == "" || b == "" || a == b {
		return false
	}
	for _, alias := range t.byName[a] {
		if alias == b {
			return true
		}
	}
	return false
}
