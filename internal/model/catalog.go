package model

// Package is an offer a client can buy through checkout
type Package struct {
	Code        string      `json:"code"`
	Title       string      `json:"title"`
	SessionType SessionType `json:"session_type"`
	Sessions    int         `json:"sessions"`
	Price       Money       `json:"price"`
}

// Catalog lists the packages sold online
var Catalog = map[string]Package{
	"intro_pack": {
		Code:        "intro_pack",
		Title:       "Intro Pack",
		SessionType: SessionTypeGroup,
		Sessions:    5,
		Price:       15000,
	},
	"ten_class": {
		Code:        "ten_class",
		Title:       "10 Class Pack",
		SessionType: SessionTypeGroup,
		Sessions:    10,
		Price:       28000,
	},
	"private_single": {
		Code:        "private_single",
		Title:       "Private Session",
		SessionType: SessionTypePrivate,
		Sessions:    1,
		Price:       9000,
	},
	"private_five": {
		Code:        "private_five",
		Title:       "5 Private Sessions",
		SessionType: SessionTypePrivate,
		Sessions:    5,
		Price:       42500,
	},
}

// LookupPackage returns the catalog entry for code
func LookupPackage(code string) (Package, bool) {
	p, ok := Catalog[code]
	return p, ok
}
