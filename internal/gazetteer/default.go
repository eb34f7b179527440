package gazetteer

// District names used by the built-in table.
const (
	DistrictNashoba   = "Nashoba Valley"
	DistrictWachusett = "Wachusett"
	DistrictMohegan   = "Mohegan"
	DistrictQuinebaug = "Quinebaug"
)

func entries(district string, names ...string) []Entry {
	out := make([]Entry, len(names))
	for i, n := range names {
		out[i] = Entry{Name: n, District: district}
	}
	return out
}

// DefaultFile is the built-in council gazetteer.
func DefaultFile() File {
	var locs []Entry
	locs = append(locs, entries(DistrictNashoba,
		"Acton", "Ayer", "Berlin", "Bolton", "Boxborough", "Groton", "Harvard",
		"Hudson", "Littleton", "Maynard", "Pepperell", "Shirley", "Stow",
		"Townsend", "Westford",
	)...)
	locs = append(locs, entries(DistrictWachusett,
		"Ashby", "Boylston", "Clinton", "Fitchburg", "Gardner", "Holden",
		"Lancaster", "Leominster", "Lunenburg", "Paxton", "Princeton", "Rutland",
		"Sterling", "West Boylston", "Westminster", "Winchendon",
	)...)
	locs = append(locs, entries(DistrictMohegan,
		"Auburn", "Grafton", "Leicester", "Marlborough", "Millbury", "Northborough",
		"Northbridge", "Shrewsbury", "Southborough", "Spencer", "Upton",
		"Westborough", "Worcester",
	)...)
	locs = append(locs, entries(DistrictQuinebaug,
		"Brookfield", "Charlton", "Dudley", "North Brookfield", "Oxford",
		"Southbridge", "Sturbridge", "Sutton", "Webster",
	)...)

	aliases := map[string]string{
		"W Boylston":   "West Boylston",
		"Boxboro":      "Boxborough",
		"Marlboro":     "Marlborough",
		"Northboro":    "Northborough",
		"Southboro":    "Southborough",
		"Westboro":     "Westborough",
		"Worc":         "Worcester",
		"N Brookfield": "North Brookfield",
		"No Grafton":   "North Grafton",
		"N Grafton":    "North Grafton",
		"So Lancaster": "South Lancaster",
		"S Lancaster":  "South Lancaster",
	}
	villages := map[string]string{
		"Fiskdale":        "Sturbridge",
		"Jefferson":       "Holden",
		"Whitinsville":    "Northbridge",
		"South Lancaster": "Lancaster",
		"Still River":     "Harvard",
		"Rochdale":        "Leicester",
		"Cherry Valley":   "Leicester",
		"North Grafton":   "Grafton",
		"West Acton":      "Acton",
		"Forge Village":   "Westford",
		"Graniteville":    "Westford",
	}

	return File{Localities: locs, Aliases: aliases, Villages: villages}
}

// Default returns the built-in gazetteer.
func Default() *Gazetteer {
	g, err := New(DefaultFile())
	if err != nil {
		panic(err)
	}
	return g
}
