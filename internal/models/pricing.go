package models

// Package - пакет кредитов. Статический справочник, в БД не хранится.
type Package struct {
	ID      string  `json:"id"`
	Amount  float64 `json:"amount"` // в долларах
	Credits int     `json:"reports"`
	Name    string  `json:"name"`
}

const DefaultCurrency = "usd"

var Packages = map[string]Package{
	"single":    {ID: "single", Amount: 499.0, Credits: 1, Name: "Single Report"},
	"bundle_5":  {ID: "bundle_5", Amount: 2250.0, Credits: 5, Name: "5 Report Bundle"},
	"bundle_10": {ID: "bundle_10", Amount: 3990.0, Credits: 10, Name: "10 Report Bundle"},
}

// PackageOrder - порядок вывода в /payments/packages
var PackageOrder = []string{"single", "bundle_5", "bundle_10"}

func LookupPackage(id string) (Package, bool) {
	p, ok := Packages[id]
	return p, ok
}
