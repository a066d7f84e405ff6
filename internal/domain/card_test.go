package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katachi/katachi/internal/domain"
)

func TestDecodeCardPayload(t *testing.T) {
	t.Parallel()

	t.Run("dispatches_on_type_tag", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			cardType domain.CardType
			raw      string
			want     domain.CardPayload
		}{
			{domain.CardTypeText, `{"content":"hi"}`, &domain.TextPayload{Content: "hi"}},
			{domain.CardTypeRichText, `{"content":"hi","htmlContent":"<p>hi</p>"}`, &domain.RichTextPayload{Content: "hi", HTMLContent: "<p>hi</p>"}},
			{domain.CardTypeImage, `{"imageUrl":"https://x/img.png","caption":"c"}`, &domain.ImagePayload{ImageURL: "https://x/img.png", Caption: "c"}},
			{domain.CardTypeLink, `{"url":"https://x","title":"t"}`, &domain.LinkPayload{URL: "https://x", Title: "t"}},
			{domain.CardTypeMap, `{"location":"Oslo","coordinates":{"lat":59.9,"lng":10.7}}`, &domain.MapPayload{Location: "Oslo", Coordinates: &domain.LatLng{Lat: 59.9, Lng: 10.7}}},
			{domain.CardTypeMarkdown, `{"markdown":"# h1"}`, &domain.MarkdownPayload{Markdown: "# h1"}},
			{domain.CardTypeTodo, `{"items":[{"text":"a","completed":true}]}`, &domain.TodoPayload{Items: []domain.TodoItem{{Text: "a", Completed: true}}}},
			{domain.CardTypeTable, `{"rows":1,"cols":2,"cells":[["a","b"]]}`, &domain.TablePayload{Rows: 1, Cols: 2, Cells: [][]string{{"a", "b"}}}},
		}

		for _, tc := range tests {
			got, err := domain.DecodeCardPayload(tc.cardType, json.RawMessage(tc.raw))
			require.NoError(t, err, "type %s", tc.cardType)
			assert.Equal(t, tc.want, got, "type %s", tc.cardType)
		}
	})

	t.Run("empty_and_null_payloads_decode_to_nil", func(t *testing.T) {
		t.Parallel()

		got, err := domain.DecodeCardPayload(domain.CardTypeText, nil)
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = domain.DecodeCardPayload(domain.CardTypeText, json.RawMessage(`null`))
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("unknown_type_is_rejected", func(t *testing.T) {
		t.Parallel()

		_, err := domain.DecodeCardPayload("hologram", json.RawMessage(`{}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown card type")
	})

	t.Run("mismatched_shape_is_rejected", func(t *testing.T) {
		t.Parallel()

		_, err := domain.DecodeCardPayload(domain.CardTypeText, json.RawMessage(`{"content":42}`))
		require.Error(t, err)
	})
}

func TestCardUnmarshalJSON(t *testing.T) {
	t.Parallel()

	t.Run("column_card_round_trips_nested_ids", func(t *testing.T) {
		t.Parallel()

		nested := uuid.New()
		raw := []byte(`{
			"id":"` + uuid.New().String() + `",
			"boardId":"` + uuid.New().String() + `",
			"type":"column",
			"position":{"x":10,"y":20},
			"size":{"width":300,"height":400},
			"zIndex":2,
			"version":1,
			"payload":{"title":"Doing","columnCards":["` + nested.String() + `"]}
		}`)

		var card domain.Card
		require.NoError(t, json.Unmarshal(raw, &card))

		assert.Equal(t, domain.CardTypeColumn, card.Type)
		assert.Equal(t, domain.Point{X: 10, Y: 20}, card.Position)

		column, ok := card.Payload.(*domain.ColumnPayload)
		require.True(t, ok)
		assert.Equal(t, "Doing", column.Title)
		assert.Equal(t, []uuid.UUID{nested}, column.CardIDs)
	})

	t.Run("unknown_type_tag_fails_decode", func(t *testing.T) {
		t.Parallel()

		raw := []byte(`{"id":"` + uuid.New().String() + `","type":"hologram","payload":{}}`)
		var card domain.Card
		require.Error(t, json.Unmarshal(raw, &card))
	})

	t.Run("absent_payload_is_nil", func(t *testing.T) {
		t.Parallel()

		raw := []byte(`{"id":"` + uuid.New().String() + `","type":"text"}`)
		var card domain.Card
		require.NoError(t, json.Unmarshal(raw, &card))
		assert.Nil(t, card.Payload)
	})
}
