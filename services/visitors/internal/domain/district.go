package domain

// Districts is the fixed list used for visitor addresses and filters.
var Districts = []string{
	"Abdiaziz",
	"Bondhere",
	"Daynile",
	"Dharkenley",
	"Hamar Jajab",
	"Hamar Weyne",
	"Hodan",
	"Howl-Wadag",
	"Heliwaa",
	"Kaxda",
	"Karan",
	"Shangani",
	"Shibis",
	"Waberi",
	"Wadajir",
	"Warta Nabada",
	"Yaqshid",
	"Garasbaley",
	"Gubadley",
	"Darusalam",
}

var districtSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Districts))
	for _, d := range Districts {
		m[d] = struct{}{}
	}
	return m
}()

func IsDistrict(s string) bool {
	_, ok := districtSet[s]
	return ok
}
