// internal/models/book.go
package models

const EntityBook = "book"

// Book is a listing in the peer-to-peer book marketplace. Exactly one of
// File and AccessLink provides the content.
type Book struct {
	Title       string    `form:"title,kind=text" json:"title"`
	Description string    `form:"description,kind=textarea" json:"description"`
	Images      []*Upload `form:"images,kind=images" json:"images"`
	File        *Upload   `form:"file,kind=file,oneof=source" json:"file"`
	AccessLink  string    `form:"accessLink,kind=url,oneof=source" json:"accessLink"`
	Price       string    `form:"price,kind=number" json:"price"`
	Category    string    `form:"category,kind=enum,options=training|breeding|veterinary|riding|history|fiction|other" json:"category"`
	Language    string    `form:"language,kind=enum,options=ar|en" json:"language"`
}

func (*Book) EntityType() string { return EntityBook }

// NewBook returns a draft with form defaults.
func NewBook() *Book {
	return &Book{Images: []*Upload{}}
}

func init() {
	register(Entity{
		Type:       EntityBook,
		OwnerField: "author",
		New:        func() Record { return NewBook() },
	})
}
