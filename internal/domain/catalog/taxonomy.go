package catalog

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/aquapet/backend/internal/domain/shared"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Display names used when a product has no category or animal
const (
	DefaultCategoryName = "Generale"
	DefaultAnimalName   = "Tutti"
)

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

// Category groups products by kind (food, toys, hygiene...)
type Category struct {
	shared.BaseEntity
	Name string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Slug string `gorm:"type:varchar(120);not null;uniqueIndex" json:"slug"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// Animal groups products by the animal they are meant for
type Animal struct {
	shared.BaseEntity
	Name string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Slug string `gorm:"type:varchar(120);not null;uniqueIndex" json:"slug"`
}

// TableName returns the table name for GORM
func (Animal) TableName() string {
	return "animals"
}

// NewCategory creates a category with a derived slug
func NewCategory(name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	return &Category{BaseEntity: shared.NewBaseEntity(), Name: name, Slug: Slugify(name)}, nil
}

// NewAnimal creates an animal with a derived slug
func NewAnimal(name string) (*Animal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Animal name cannot be empty")
	}
	return &Animal{BaseEntity: shared.NewBaseEntity(), Name: name, Slug: Slugify(name)}, nil
}

// Slugify folds accents, lowercases the name and joins alphanumeric runs
// with dashes ("Uccelli Più" becomes "uccelli-piu")
func Slugify(name string) string {
	folded, _, err := transform.String(foldAccents(), strings.TrimSpace(name))
	if err != nil {
		folded = name
	}
	slug := slugInvalidChars.ReplaceAllString(strings.ToLower(folded), "-")
	return strings.Trim(slug, "-")
}

// foldAccents strips combining marks after canonical decomposition. A
// transformer keeps state, so each call builds its own chain.
func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
