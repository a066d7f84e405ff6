package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Point is a canvas position in integer pixel coordinates.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Dimensions is a card or shape extent in integer pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type CardType string

const (
	CardTypeText       CardType = "text"
	CardTypeRichText   CardType = "richtext"
	CardTypeImage      CardType = "image"
	CardTypeLink       CardType = "link"
	CardTypeAudio      CardType = "audio"
	CardTypeVideo      CardType = "video"
	CardTypeMap        CardType = "map"
	CardTypeMarkdown   CardType = "markdown"
	CardTypeDrawing    CardType = "drawing"
	CardTypeColumn     CardType = "column"
	CardTypeTable      CardType = "table"
	CardTypeTodo       CardType = "todo"
	CardTypeStoryboard CardType = "storyboard"
)

// CardPayload is the type-specific portion of a card, one variant per
// CardType. Dispatch is by the card's type tag, never by probing for
// optional fields.
type CardPayload interface {
	cardPayload()
}

type TextPayload struct {
	Content string `json:"content"`
}

type RichTextPayload struct {
	Content     string `json:"content"`
	HTMLContent string `json:"htmlContent,omitempty"`
}

type ImagePayload struct {
	ImageURL string `json:"imageUrl"`
	Caption  string `json:"caption,omitempty"`
}

type LinkPayload struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

type AudioPayload struct {
	AudioURL string `json:"audioUrl"`
}

type VideoPayload struct {
	VideoURL string `json:"videoUrl"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type MapPayload struct {
	Location    string  `json:"location"`
	Coordinates *LatLng `json:"coordinates,omitempty"`
}

type MarkdownPayload struct {
	Markdown string `json:"markdown"`
}

type DrawingPayload struct {
	Paths []string `json:"paths"`
	Color string   `json:"color,omitempty"`
	Width int      `json:"width,omitempty"`
}

// ColumnPayload nests other cards of the same board. A card may belong
// to at most one column at a time; CardIDs must reference existing,
// non-deleted cards.
type ColumnPayload struct {
	Title   string      `json:"title"`
	CardIDs []uuid.UUID `json:"columnCards"`
}

type TablePayload struct {
	Rows  int        `json:"rows"`
	Cols  int        `json:"cols"`
	Cells [][]string `json:"cells"`
}

type TodoItem struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type TodoPayload struct {
	Title string     `json:"title,omitempty"`
	Items []TodoItem `json:"items"`
}

type StoryboardFrame struct {
	ID      uuid.UUID `json:"id"`
	Caption string    `json:"caption"`
	Notes   string    `json:"notes,omitempty"`
}

type StoryboardPayload struct {
	Title  string            `json:"title"`
	Frames []StoryboardFrame `json:"frames"`
}

func (*TextPayload) cardPayload()       {}
func (*RichTextPayload) cardPayload()   {}
func (*ImagePayload) cardPayload()      {}
func (*LinkPayload) cardPayload()       {}
func (*AudioPayload) cardPayload()      {}
func (*VideoPayload) cardPayload()      {}
func (*MapPayload) cardPayload()        {}
func (*MarkdownPayload) cardPayload()   {}
func (*DrawingPayload) cardPayload()    {}
func (*ColumnPayload) cardPayload()     {}
func (*TablePayload) cardPayload()      {}
func (*TodoPayload) cardPayload()       {}
func (*StoryboardPayload) cardPayload() {}

// DecodeCardPayload unmarshals raw into the variant matching t. A nil or
// empty raw yields a nil payload; an unknown type tag is rejected.
func DecodeCardPayload(t CardType, raw json.RawMessage) (CardPayload, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var p CardPayload
	switch t {
	case CardTypeText:
		p = &TextPayload{}
	case CardTypeRichText:
		p = &RichTextPayload{}
	case CardTypeImage:
		p = &ImagePayload{}
	case CardTypeLink:
		p = &LinkPayload{}
	case CardTypeAudio:
		p = &AudioPayload{}
	case CardTypeVideo:
		p = &VideoPayload{}
	case CardTypeMap:
		p = &MapPayload{}
	case CardTypeMarkdown:
		p = &MarkdownPayload{}
	case CardTypeDrawing:
		p = &DrawingPayload{}
	case CardTypeColumn:
		p = &ColumnPayload{}
	case CardTypeTable:
		p = &TablePayload{}
	case CardTypeTodo:
		p = &TodoPayload{}
	case CardTypeStoryboard:
		p = &StoryboardPayload{}
	default:
		return nil, fmt.Errorf("domain.DecodeCardPayload: unknown card type %q", t)
	}

	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("domain.DecodeCardPayload: %s: %w", t, err)
	}
	return p, nil
}

// Card is a positioned, typed visual element on a board.
type Card struct {
	ID        uuid.UUID   `json:"id"`
	BoardID   uuid.UUID   `json:"boardId"`
	Type      CardType    `json:"type"`
	Position  Point       `json:"position"`
	Size      Dimensions  `json:"size"`
	ZIndex    int         `json:"zIndex"`
	Color     string      `json:"color,omitempty"`
	Payload   CardPayload `json:"payload,omitempty"`
	Version   int         `json:"version"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	DeletedAt *time.Time  `json:"deletedAt,omitempty"`
}

// cardAlias avoids recursing into Card's own UnmarshalJSON.
type cardAlias struct {
	ID        uuid.UUID       `json:"id"`
	BoardID   uuid.UUID       `json:"boardId"`
	Type      CardType        `json:"type"`
	Position  Point           `json:"position"`
	Size      Dimensions      `json:"size"`
	ZIndex    int             `json:"zIndex"`
	Color     string          `json:"color,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *time.Time      `json:"deletedAt,omitempty"`
}

func (c *Card) UnmarshalJSON(data []byte) error {
	var a cardAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("domain.Card: %w", err)
	}

	payload, err := DecodeCardPayload(a.Type, a.Payload)
	if err != nil {
		return err
	}

	*c = Card{
		ID:        a.ID,
		BoardID:   a.BoardID,
		Type:      a.Type,
		Position:  a.Position,
		Size:      a.Size,
		ZIndex:    a.ZIndex,
		Color:     a.Color,
		Payload:   payload,
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
		DeletedAt: a.DeletedAt,
	}
	return nil
}

type CardRepository interface {
	Create(ctx context.Context, c *Card) error
	// GetByID returns the card row, excluding soft-deleted cards.
	GetByID(ctx context.Context, id uuid.UUID) (*Card, error)
	// Update overwrites mutable fields and bumps version and updated_at.
	// Card updates are last-write-wins: there is no version CAS here,
	// unlike boards. Returns ErrNotFound when the card is absent.
	Update(ctx context.Context, c *Card) error
	// SoftDelete marks the card deleted and bumps its version. Returns
	// false when the card was already deleted or never existed, which
	// callers treat as an idempotent success.
	SoftDelete(ctx context.Context, id uuid.UUID) (bool, error)
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*Card, error)
	// ExistingIDs filters ids down to those present and non-deleted on
	// the given board. Used to sanitize column nesting references.
	ExistingIDs(ctx context.Context, boardID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
}
