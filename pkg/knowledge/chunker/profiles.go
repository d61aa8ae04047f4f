package chunker

// Record is a structured section decoded with schema.Decode. Heading returns
// "" when the record's key fields are missing.
type Record interface {
	Heading() string
}

// Profile recognises one kind of structured section.
type Profile struct {
	Tag string
	New func() Record
}

// DefaultProfiles recognises the résumé-style records of a portfolio knowledge base.
func DefaultProfiles() []Profile {
	return []Profile{
		{Tag: "experience", New: func() Record { return &Experience{} }},
		{Tag: "education", New: func() Record { return &Education{} }},
		{Tag: "skills", New: func() Record { return &Skills{} }},
	}
}

// Experience is a work-history record.
type Experience struct {
	Company     string `prefix:"Company Name:"`
	Title       string `prefix:"Title:"`
	Location    string `prefix:"Location:"`
	StartedOn   string `prefix:"Started On:"`
	FinishedOn  string `prefix:"Finished On:"`
	Description string `prefix:"Description:"`
}

func (e *Experience) Heading() string {
	switch {
	case e.Company == "":
		return ""
	case e.Title != "":
		return e.Title + " at " + e.Company
	default:
		return e.Company
	}
}

// Education is a degree record.
type Education struct {
	School    string `prefix:"School Name:"`
	Degree    string `prefix:"Degree Name:"`
	StartDate string `prefix:"Start Date:"`
	EndDate   string `prefix:"End Date:"`
	Notes     string `prefix:"Notes:"`
}

func (e *Education) Heading() string {
	switch {
	case e.School == "" && e.Degree == "":
		return ""
	case e.School == "":
		return e.Degree
	case e.Degree == "":
		return e.School
	default:
		return e.Degree + ", " + e.School
	}
}

// Skills is a comma-separated skill list.
type Skills struct {
	Skills []string `prefix:"Skills:"`
}

func (s *Skills) Heading() string {
	if len(s.Skills) == 0 {
		return ""
	}
	return "Skills"
}

type tagLine struct {
	Tags []string `prefix:"Tags:"`
}
