package model

type FinanceStats struct {
	TotalRaised       float64  `json:"total_raised"`
	SuperPACSpending  float64  `json:"super_pac_spending"`
	LobbyingSpending  float64  `json:"lobbying_spending"`
	DarkMoneySpending float64  `json:"dark_money_spending"`
	TopIndustries     []string `json:"top_industries"`
	Estimated         bool     `json:"estimated"`
	Parsed            bool     `json:"parsed"`
	Cycle             int      `json:"cycle"`
	Note              string   `json:"note,omitempty"`
}

type NewsArticle struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

type LobbyingFiling struct {
	ID         string  `json:"id"`
	Registrant string  `json:"registrant"`
	Client     string  `json:"client"`
	Income     float64 `json:"income"`
	Expenses   float64 `json:"expenses"`
	Year       int     `json:"year"`
	Period     string  `json:"period,omitempty"`
}

type RegistrantTotal struct {
	Registrant string  `json:"registrant"`
	Income     float64 `json:"income"`
	Filings    int     `json:"filings"`
}

type LobbyingSummary struct {
	Year        int               `json:"year"`
	TotalIncome float64           `json:"total_income"`
	Filings     int               `json:"filings"`
	Top         []RegistrantTotal `json:"top"`
}

type StateBill struct {
	ID           string   `json:"id"`
	Identifier   string   `json:"identifier"`
	Title        string   `json:"title"`
	Jurisdiction string   `json:"jurisdiction"`
	Session      string   `json:"session,omitempty"`
	UpdatedAt    string   `json:"updated_at,omitempty"`
	Subjects     []string `json:"subjects,omitempty"`
	URL          string   `json:"url,omitempty"`
}

type Polarization struct {
	Score     float64 `json:"score"`
	Label     string  `json:"label"`
	Rationale string  `json:"rationale,omitempty"`
	Parsed    bool    `json:"parsed"`
}

type RepresentativeBill struct {
	Bill         Bill          `json:"bill"`
	Polarization *Polarization `json:"polarization,omitempty"`
}
