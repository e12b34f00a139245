package scrape

// Owner holds personal information about the portfolio owner.
type Owner struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Bio   string `json:"bio"`
}

// About holds the about-section text.
type About struct {
	Description string `json:"description"`
}

// Project is a single portfolio project entry.
type Project struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	GithubURL    string   `json:"github_url,omitempty"`
	LiveURL      string   `json:"live_url,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

// Experience is a single professional experience entry.
type Experience struct {
	Title            string   `json:"title,omitempty"`
	Company          string   `json:"company,omitempty"`
	DateRange        string   `json:"date_range,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
}

// Education is a single education entry.
type Education struct {
	Degree      string `json:"degree,omitempty"`
	Institution string `json:"institution,omitempty"`
	DateRange   string `json:"date_range,omitempty"`
	Description string `json:"description,omitempty"`
}

// Contact holds contact details found on the page.
type Contact struct {
	Email  string            `json:"email,omitempty"`
	Social map[string]string `json:"social"`
}

// PortfolioRecord is the aggregate result of extraction. Every field is
// best-effort: a section that was not found is an empty container, never
// an error.
type PortfolioRecord struct {
	Owner      Owner        `json:"owner"`
	About      About        `json:"about"`
	Skills     []string     `json:"skills"`
	Projects   []Project    `json:"projects"`
	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`
	Contact    Contact      `json:"contact"`
}

// NewPortfolioRecord returns a record with all containers initialized,
// so absent sections serialize as empty arrays/objects rather than null.
func NewPortfolioRecord() PortfolioRecord {
	return PortfolioRecord{
		Skills:     []string{},
		Projects:   []Project{},
		Experience: []Experience{},
		Education:  []Education{},
		Contact:    Contact{Social: map[string]string{}},
	}
}

// PageStats summarizes the raw page content: paragraph texts, link targets,
// and image sources. The counts feed the chat grounding context.
type PageStats struct {
	Paragraphs []string `json:"paragraphs"`
	Links      []string `json:"links"`
	Images     []string `json:"images"`
}
