package brand

// Builtin returns the registry of built-in brand profiles.
//
// The set skews toward consumer app brands whose UI screenshots this tool is
// typically pointed at. Order matters: it is the deterministic tie-break
// order for Identify.
func Builtin() *Registry {
	r, err := NewRegistry(builtinProfiles()...)
	if err != nil {
		// Builtin profiles are compile-time data; a failure here is a
		// programming error.
		panic(err)
	}
	return r
}

func builtinProfiles() []Profile {
	return []Profile{
		{
			Name: "toss",
			Colors: Colors{
				Primary:   []string{"#0064FF"},
				Secondary: []string{"#F5F7FA", "#FFFFFF"},
				Accent:    []string{"#3182F6"},
			},
			Keywords: []string{"toss", "토스"},
			Patterns: []string{`toss\s*(pay|bank|invest)`, `토스(페이|뱅크)?`},
		},
		{
			Name: "kakao",
			Colors: Colors{
				Primary:   []string{"#FEE500"},
				Secondary: []string{"#191919", "#FFFFFF"},
				Accent:    []string{"#FFCD00"},
			},
			Keywords: []string{"kakao", "카카오"},
			Patterns: []string{`kakao\s*(talk|pay|bank|map)`, `카카오(톡|페이|뱅크)?`},
		},
		{
			Name: "naver",
			Colors: Colors{
				Primary:   []string{"#03C75A"},
				Secondary: []string{"#FFFFFF", "#000000"},
				Accent:    []string{"#00DE5A"},
			},
			Keywords: []string{"naver", "네이버"},
			Patterns: []string{`naver\s*(pay|map|webtoon)`, `네이버(페이|지도)?`},
		},
		{
			Name: "line",
			Colors: Colors{
				Primary:   []string{"#06C755"},
				Secondary: []string{"#FFFFFF"},
				Accent:    []string{"#00B900"},
			},
			Keywords: []string{"line messenger", "라인"},
			Patterns: []string{`\bline\s*(pay|app|messenger)`},
		},
		{
			Name: "baemin",
			Colors: Colors{
				Primary:   []string{"#2AC1BC"},
				Secondary: []string{"#FFFFFF", "#333333"},
				Accent:    []string{"#1EC800"},
			},
			Keywords: []string{"baemin", "배민", "배달의민족"},
			Patterns: []string{`배달의\s*민족`},
		},
		{
			Name: "coupang",
			Colors: Colors{
				Primary:   []string{"#E52528"},
				Secondary: []string{"#FFFFFF"},
				Accent:    []string{"#346AFF"},
			},
			Keywords: []string{"coupang", "쿠팡"},
			Patterns: []string{`coupang\s*(eats|play)`, `쿠팡(이츠)?`},
		},
		{
			Name: "apple",
			Colors: Colors{
				Primary:   []string{"#000000"},
				Secondary: []string{"#FFFFFF", "#F5F5F7"},
				Accent:    []string{"#0071E3"},
			},
			Keywords: []string{"apple", "iphone", "ipad", "ios"},
			Patterns: []string{`app\s*store`, `apple\s*(music|pay|watch)`},
		},
		{
			Name: "google",
			Colors: Colors{
				Primary:   []string{"#4285F4"},
				Secondary: []string{"#FFFFFF", "#EA4335"},
				Accent:    []string{"#FBBC05", "#34A853"},
			},
			Keywords: []string{"google", "gmail", "android"},
			Patterns: []string{`google\s*(maps|drive|play|pay)`, `material\s*design`},
		},
	}
}
