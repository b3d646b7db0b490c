package model

// Choice is a code/label pair offered to registration forms.
type Choice struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

var Countries = []Choice{
	{Code: "UAE", Label: "United Arab Emirates"},
	{Code: "UZB", Label: "Uzbekistan"},
}

var CitiesByCountry = map[string][]Choice{
	"UAE": {
		{Code: "AUH", Label: "Abu Dhabi"},
		{Code: "DXB", Label: "Dubai"},
		{Code: "SHJ", Label: "Sharjah"},
		{Code: "AJM", Label: "Ajman"},
		{Code: "UAQ", Label: "Umm Al Quwain"},
		{Code: "FUJ", Label: "Fujairah"},
		{Code: "RAK", Label: "Ras Al Khaimah"},
	},
	"UZB": {
		{Code: "TAS", Label: "Tashkent"},
		{Code: "SAM", Label: "Samarkand"},
		{Code: "NAM", Label: "Namangan"},
		{Code: "AND", Label: "Andijan"},
	},
}
