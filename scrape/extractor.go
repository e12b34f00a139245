package scrape

import (
	"log/slog"
	"strings"
)

// Selector cascades for each semantic field. Each list is ordered by
// priority: the first selector that yields a non-empty result wins, and
// later candidates are never consulted.
var (
	nameSelectors  = []string{"h1", ".hero-name", ".name", ".title-name"}
	titleSelectors = []string{"h2", ".hero-title", ".subtitle", ".profession"}
	bioSelectors   = []string{"p.hero-text", "div.hero-content p", ".intro p", ".about-content p"}

	aboutSections = []string{"#about", ".about-section", ".about", "section.about"}

	skillsSections = []string{"#skills", ".skills-section", ".skills", "section.skills"}
	skillItems     = []string{".skill-item", ".skill-card", ".skill", "li", "span.tag", ".skill-tag"}

	projectSections   = []string{"#projects", ".projects-section", ".projects", "section.projects"}
	projectCards      = []string{".project-card", ".project", ".card"}
	projectTitleSel   = []string{"h3", "h2", ".title", ".project-title"}
	projectDescSel    = []string{"p", ".description", ".project-description"}
	projectTechSel    = []string{".tech-stack span", ".technologies span", ".tags span", ".tag"}

	experienceSections = []string{"#experience", ".experience-section", "section.experience"}
	experienceItems    = []string{".experience-item", ".job", ".position", ".work-item"}
	expTitleSel        = []string{"h3", ".title", ".job-title"}
	expCompanySel      = []string{"h4", ".company", ".employer"}
	dateRangeSel       = []string{".date", ".duration", ".period"}
	expRespSel         = []string{"li", "p.description"}

	educationSections = []string{"#education", ".education-section", "section.education"}
	educationItems    = []string{".education-item", ".degree", ".school-item"}
	eduDegreeSel      = []string{"h3", ".degree", ".qualification"}
	eduInstSel        = []string{"h4", ".institution", ".school", ".university"}
	eduDescSel        = []string{"p.description", ".details"}

	contactSections = []string{"#contact", ".contact-section", ".contact", "section.contact", "footer"}
)

// Extractor applies the selector cascades to rendered markup and produces
// a best-effort PortfolioRecord.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an extractor. A nil logger falls back to slog.Default.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract parses the static markup and runs every field cascade against the
// live DOM first (when a live handle is provided) and the static parse
// second. The live tier takes precedence; the static tier is consulted only
// when the live tier produced nothing for that field. A failure in any
// single field is absorbed and leaves that field at its empty default --
// it never suppresses extraction of the remaining fields.
func (e *Extractor) Extract(html string, live Node) PortfolioRecord {
	record := NewPortfolioRecord()

	static, err := ParseHTML(html)
	if err != nil {
		e.logger.Warn("Failed to parse static markup", "error", err)
		static = nil
	}

	tiers := make([]Node, 0, 2)
	if live != nil {
		tiers = append(tiers, live)
	}
	if static != nil {
		tiers = append(tiers, static)
	}

	e.field("owner", func() {
		record.Owner = extractOwner(tiers)
	})
	e.field("about", func() {
		record.About = extractAbout(tiers)
	})
	e.field("skills", func() {
		if skills := extractSkills(tiers); skills != nil {
			record.Skills = skills
		}
	})
	e.field("projects", func() {
		if projects := extractProjects(tiers); projects != nil {
			record.Projects = projects
		}
	})
	e.field("experience", func() {
		if exp := extractExperience(tiers); exp != nil {
			record.Experience = exp
		}
	})
	e.field("education", func() {
		if edu := extractEducation(tiers); edu != nil {
			record.Education = edu
		}
	})
	e.field("contact", func() {
		if contact := extractContact(tiers); contact.Email != "" || len(contact.Social) > 0 {
			record.Contact = contact
		}
	})

	return record
}

// field runs one field extraction, recovering from any panic so a bad
// selector or a dropped live handle cannot abort the remaining fields.
func (e *Extractor) field(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("Field extraction failed", "field", name, "panic", r)
		}
	}()
	fn()
}

func extractOwner(tiers []Node) Owner {
	var owner Owner
	for _, root := range tiers {
		if owner.Name == "" {
			owner.Name = firstText(root, nameSelectors)
		}
		if owner.Title == "" {
			owner.Title = firstText(root, titleSelectors)
		}
		if owner.Bio == "" {
			owner.Bio = joinedText(root, bioSelectors)
		}
	}
	return owner
}

func extractAbout(tiers []Node) About {
	for _, root := range tiers {
		for _, section := range sectionCandidates(root, aboutSections) {
			if desc := joinedText(section, []string{"p"}); desc != "" {
				return About{Description: desc}
			}
		}
	}
	return About{}
}

func extractSkills(tiers []Node) []string {
	for _, root := range tiers {
		for _, section := range sectionCandidates(root, skillsSections) {
			if skills := allTexts(section, skillItems); len(skills) > 0 {
				return skills
			}
		}
	}
	return nil
}

func extractProjects(tiers []Node) []Project {
	for _, root := range tiers {
		for _, section := range sectionCandidates(root, projectSections) {
			if projects := projectsFromSection(section); len(projects) > 0 {
				return projects
			}
		}
	}
	return nil
}

func projectsFromSection(section Node) []Project {
	for _, cardSel := range projectCards {
		cards := section.Find(cardSel)
		if len(cards) == 0 {
			continue
		}
		var projects []Project
		for _, card := range cards {
			p := Project{
				Title:        firstText(card, projectTitleSel),
				Description:  firstText(card, projectDescSel),
				Technologies: allTexts(card, projectTechSel),
			}
			classifyProjectLinks(card, &p)
			// Cards without a title are decorative noise, not projects.
			if p.Title != "" {
				projects = append(projects, p)
			}
		}
		if len(projects) > 0 {
			return projects
		}
	}
	return nil
}

// classifyProjectLinks sorts a card's anchors into repository and live-demo
// links by href and link text conventions.
func classifyProjectLinks(card Node, p *Project) {
	for _, link := range card.Find("a") {
		href := link.Attr("href")
		lowHref := strings.ToLower(href)
		lowText := strings.ToLower(link.Text())
		switch {
		case strings.Contains(lowHref, "github"):
			if p.GithubURL == "" {
				p.GithubURL = href
			}
		case strings.Contains(lowText, "live") || strings.Contains(lowText, "demo") ||
			strings.Contains(lowHref, "vercel") || strings.Contains(lowHref, "netlify"):
			if p.LiveURL == "" {
				p.LiveURL = href
			}
		}
	}
}

func extractExperience(tiers []Node) []Experience {
	for _, root := range tiers {
		for _, section := range sectionCandidates(root, experienceSections) {
			if entries := experienceFromSection(section); len(entries) > 0 {
				return entries
			}
		}
	}
	return nil
}

func experienceFromSection(section Node) []Experience {
	for _, itemSel := range experienceItems {
		items := section.Find(itemSel)
		if len(items) == 0 {
			continue
		}
		var entries []Experience
		for _, item := range items {
			entry := Experience{
				Title:            firstText(item, expTitleSel),
				Company:          firstText(item, expCompanySel),
				DateRange:        firstText(item, dateRangeSel),
				Responsibilities: allTexts(item, expRespSel),
			}
			if entry.Title != "" || entry.Company != "" {
				entries = append(entries, entry)
			}
		}
		if len(entries) > 0 {
			return entries
		}
	}
	return nil
}

func extractEducation(tiers []Node) []Education {
	for _, root := range tiers {
		for _, section := range sectionCandidates(root, educationSections) {
			if entries := educationFromSection(section); len(entries) > 0 {
				return entries
			}
		}
	}
	return nil
}

func educationFromSection(section Node) []Education {
	for _, itemSel := range educationItems {
		items := section.Find(itemSel)
		if len(items) == 0 {
			continue
		}
		var entries []Education
		for _, item := range items {
			entry := Education{
				Degree:      firstText(item, eduDegreeSel),
				Institution: firstText(item, eduInstSel),
				DateRange:   firstText(item, dateRangeSel),
				Description: firstText(item, eduDescSel),
			}
			if entry.Degree != "" || entry.Institution != "" {
				entries = append(entries, entry)
			}
		}
		if len(entries) > 0 {
			return entries
		}
	}
	return nil
}

func extractContact(tiers []Node) Contact {
	for _, root := range tiers {
		for _, section := range sectionCandidates(root, contactSections) {
			contact := contactFromSection(section)
			if contact.Email != "" || len(contact.Social) > 0 {
				return contact
			}
		}
	}
	return Contact{Social: map[string]string{}}
}

func contactFromSection(section Node) Contact {
	contact := Contact{Social: map[string]string{}}

	if mailto := firstNode(section, []string{`a[href^="mailto:"]`}); mailto != nil {
		contact.Email = strings.TrimPrefix(mailto.Attr("href"), "mailto:")
	}

	for _, link := range section.Find("a") {
		href := link.Attr("href")
		switch {
		case strings.Contains(href, "github.com"):
			setIfAbsent(contact.Social, "github", href)
		case strings.Contains(href, "linkedin.com"):
			setIfAbsent(contact.Social, "linkedin", href)
		case strings.Contains(href, "twitter.com"):
			setIfAbsent(contact.Social, "twitter", href)
		}
	}

	return contact
}

func setIfAbsent(m map[string]string, key, value string) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}
