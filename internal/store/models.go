package store

import "time"

// User is the workspace-owner account every root entity is attributed to.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"size:255"`
	PasswordHash string `gorm:"size:255"`
	FirstName    string `gorm:"size:64"`
	LastName     string `gorm:"size:64"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Tag is a lookup row shared across posts.
type Tag struct {
	ID   uint   `gorm:"primaryKey"`
	Slug string `gorm:"uniqueIndex;size:128;not null"`
	Name string `gorm:"size:128;not null"`
}

// Category is a lookup row shared across posts.
type Category struct {
	ID   uint   `gorm:"primaryKey"`
	Slug string `gorm:"uniqueIndex;size:128;not null"`
	Name string `gorm:"size:128;not null"`
}

// Series groups episodic posts. EpisodeCount is recomputed from a
// live count query after every episode upsert, never incremented.
type Series struct {
	ID           uint   `gorm:"primaryKey"`
	Slug         string `gorm:"uniqueIndex;size:255;not null"`
	Title        string `gorm:"size:255"`
	Description  string `gorm:"type:text"`
	EpisodeCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Post is the root entity for blog content. Episodes are posts that
// belong to a series and carry an episode number.
type Post struct {
	ID            uint   `gorm:"primaryKey"`
	OwnerID       uint   `gorm:"index;not null"`
	Slug          string `gorm:"uniqueIndex;size:255;not null"`
	Title         string `gorm:"size:255"`
	Description   string `gorm:"type:text"`
	Content       string `gorm:"type:text"`
	Language      string `gorm:"size:8"`
	Published     bool
	PublishedAt   *time.Time
	SeriesID      *uint `gorm:"index"`
	EpisodeNumber *int
	Tags          []Tag             `gorm:"many2many:post_tags"`
	Categories    []Category        `gorm:"many2many:post_categories"`
	Translations  []PostTranslation `gorm:"foreignKey:PostID"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PostTranslation is one non-primary-language rendering of a post,
// keyed by (post_id, language_code).
type PostTranslation struct {
	ID           uint   `gorm:"primaryKey"`
	PostID       uint   `gorm:"uniqueIndex:idx_post_translation;not null"`
	LanguageCode string `gorm:"uniqueIndex:idx_post_translation;size:8;not null"`
	Title        string `gorm:"size:255"`
	Description  string `gorm:"type:text"`
	Content      string `gorm:"type:text"`
	UpdatedAt    time.Time
}

// Technology is a lookup row shared across projects.
type Technology struct {
	ID   uint   `gorm:"primaryKey"`
	Slug string `gorm:"uniqueIndex;size:128;not null"`
	Name string `gorm:"size:128;not null"`
}

// Project is the root entity for portfolio projects.
type Project struct {
	ID           uint   `gorm:"primaryKey"`
	OwnerID      uint   `gorm:"index;not null"`
	Slug         string `gorm:"uniqueIndex;size:255;not null"`
	Title        string `gorm:"size:255"`
	Description  string `gorm:"type:text"`
	Content      string `gorm:"type:text"`
	Status       string `gorm:"size:32"`
	Featured     bool
	RepoURL      string         `gorm:"size:512"`
	DemoURL      string         `gorm:"size:512"`
	Technologies []Technology   `gorm:"many2many:project_technologies"`
	Detail       *ProjectDetail `gorm:"foreignKey:ProjectID"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProjectDetail is the single structured detail row owned by a
// project. All fields are overwritten wholesale on every sync.
type ProjectDetail struct {
	ID        uint   `gorm:"primaryKey"`
	ProjectID uint   `gorm:"uniqueIndex;not null"`
	Readme    string `gorm:"type:text"`
	License   string `gorm:"size:64"`
	Version   string `gorm:"size:32"`
	UpdatedAt time.Time
}

// Idea is the root entity for research ideas.
type Idea struct {
	ID        uint        `gorm:"primaryKey"`
	OwnerID   uint        `gorm:"index;not null"`
	Slug      string      `gorm:"uniqueIndex;size:255;not null"`
	Title     string      `gorm:"size:255"`
	Abstract  string      `gorm:"type:text"`
	Content   string      `gorm:"type:text"`
	Status    string      `gorm:"size:32"`
	Detail    *IdeaDetail `gorm:"foreignKey:IdeaID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IdeaDetail is the single structured detail row owned by an idea.
type IdeaDetail struct {
	ID         uint   `gorm:"primaryKey"`
	IdeaID     uint   `gorm:"uniqueIndex;not null"`
	Progress   string `gorm:"type:text"`
	Results    string `gorm:"type:text"`
	References string `gorm:"type:text"`
	UpdatedAt  time.Time
}

// TimelineUpdate is the root entity for timeline entries. Its natural
// key is the (title, date) pair rather than a slug.
type TimelineUpdate struct {
	ID          uint      `gorm:"primaryKey"`
	OwnerID     uint      `gorm:"index;not null"`
	Title       string    `gorm:"uniqueIndex:idx_update_title_date;size:255;not null"`
	Date        time.Time `gorm:"uniqueIndex:idx_update_title_date;not null"`
	Description string    `gorm:"type:text"`
	Category    string    `gorm:"size:64"`
	Icon        string    `gorm:"size:64"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Resume is the root entity for resume documents, owning one row set
// per section that is replaced wholesale on every sync.
type Resume struct {
	ID           uint   `gorm:"primaryKey"`
	OwnerID      uint   `gorm:"index;not null"`
	Slug         string `gorm:"uniqueIndex;size:255;not null"`
	FullName     string `gorm:"size:255"`
	Headline     string `gorm:"size:255"`
	Summary      string `gorm:"type:text"`
	Email        string `gorm:"size:255"`
	Location     string `gorm:"size:255"`
	Education    []ResumeEducation   `gorm:"foreignKey:ResumeID"`
	Experience   []ResumeExperience  `gorm:"foreignKey:ResumeID"`
	Awards       []ResumeAward       `gorm:"foreignKey:ResumeID"`
	Publications []ResumePublication `gorm:"foreignKey:ResumeID"`
	Research     []ResumeResearch    `gorm:"foreignKey:ResumeID"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ResumeEducation is one education entry.
type ResumeEducation struct {
	ID          uint   `gorm:"primaryKey"`
	ResumeID    uint   `gorm:"index;not null"`
	Institution string `gorm:"size:255"`
	Degree      string `gorm:"size:255"`
	Field       string `gorm:"size:255"`
	StartYear   int
	EndYear     int
	Position    int
}

// ResumeExperience is one work-experience entry.
type ResumeExperience struct {
	ID          uint   `gorm:"primaryKey"`
	ResumeID    uint   `gorm:"index;not null"`
	Company     string `gorm:"size:255"`
	Role        string `gorm:"size:255"`
	Description string `gorm:"type:text"`
	StartDate   string `gorm:"size:32"`
	EndDate     string `gorm:"size:32"`
	Position    int
}

// ResumeAward is one award entry.
type ResumeAward struct {
	ID       uint   `gorm:"primaryKey"`
	ResumeID uint   `gorm:"index;not null"`
	Title    string `gorm:"size:255"`
	Issuer   string `gorm:"size:255"`
	Year     int
	Position int
}

// ResumePublication is one publication entry.
type ResumePublication struct {
	ID       uint   `gorm:"primaryKey"`
	ResumeID uint   `gorm:"index;not null"`
	Title    string `gorm:"size:512"`
	Venue    string `gorm:"size:255"`
	Year     int
	URL      string `gorm:"size:512"`
	Position int
}

// ResumeResearch is one research-interest entry.
type ResumeResearch struct {
	ID          uint   `gorm:"primaryKey"`
	ResumeID    uint   `gorm:"index;not null"`
	Topic       string `gorm:"size:255"`
	Description string `gorm:"type:text"`
	Position    int
}

// allModels lists every table in migration-safe order (referenced
// tables before referencing ones).
var allModels = []any{
	&User{},
	&Tag{},
	&Category{},
	&Series{},
	&Post{},
	&PostTranslation{},
	&Technology{},
	&Project{},
	&ProjectDetail{},
	&Idea{},
	&IdeaDetail{},
	&TimelineUpdate{},
	&Resume{},
	&ResumeEducation{},
	&ResumeExperience{},
	&ResumeAward{},
	&ResumePublication{},
	&ResumeResearch{},
}
