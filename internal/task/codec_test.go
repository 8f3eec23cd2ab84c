package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeKeepsActiveOrder(t *testing.T) {
	in := []Task{
		{ID: "1", Text: "a", Priority: PriorityHigh, Category: CategoryWork, DueDate: "2026-01-01T10:00"},
		{ID: "2", Text: "b", Priority: PriorityLow, Category: CategoryShopping, Completed: true},
		{ID: "3", Text: "c", Priority: PriorityMedium, Category: CategoryPersonal, Alerted: true, DueDate: "2026-01-01T09:00"},
	}
	data, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEncodeEmptyIsArray(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestDecodeLegacyRecords(t *testing.T) {
	data := `[
		{"text":"会議","note":"","completed":false,"priority":"high","dueDate":"2026-01-01T10:00","alerted":false,"category":"仕事"},
		{"text":"牛乳","note":"","completed":false,"priority":"medium","dueDate":"","alerted":false,"category":"買い物"},
		{"text":"掃除","note":"","completed":false,"priority":"low","dueDate":"","alerted":false,"category":"プライベート"}
	]`
	out, err := Decode([]byte(data))
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, CategoryWork, out[0].Category)
	assert.Equal(t, CategoryShopping, out[1].Category)
	assert.Equal(t, CategoryPersonal, out[2].Category)
	for _, task := range out {
		assert.NotEmpty(t, task.ID)
	}
	assert.NotEqual(t, out[0].ID, out[1].ID)
}

func TestDecodeRejectsSchemaMismatch(t *testing.T) {
	cases := map[string]string{
		"not an array":   `{"text":"a"}`,
		"bad category":   `[{"text":"a","category":"all"}]`,
		"bad priority":   `[{"text":"a","category":"work","priority":"urgent"}]`,
		"empty text":     `[{"text":" ","category":"work"}]`,
		"wrong type":     `[{"text":"a","category":"work","completed":"yes"}]`,
		"truncated json": `[{"text":"a"`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(data))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	out, err := Decode([]byte("  "))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestParseDueLayouts(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	want := time.Date(2026, 4, 2, 7, 30, 0, 0, loc)

	for _, v := range []string{"2026-04-02T07:30", "2026-04-02T07:30:00", "2026-04-02 07:30", "2026-04-01T22:30:00Z"} {
		got, ok, err := ParseDue(v, loc)
		require.NoError(t, err, v)
		assert.True(t, ok, v)
		assert.True(t, want.Equal(got), "%s parsed as %v", v, got)
	}

	_, ok, err := ParseDue("", loc)
	assert.NoError(t, err)
	assert.False(t, ok)

	_, _, err = ParseDue("next week", loc)
	assert.Error(t, err)
}

func TestParseFilterCategory(t *testing.T) {
	c, err := ParseFilterCategory("")
	require.NoError(t, err)
	assert.Equal(t, CategoryAll, c)

	c, err = ParseFilterCategory("すべて")
	require.NoError(t, err)
	assert.Equal(t, CategoryAll, c)

	c, err = ParseFilterCategory("Shopping")
	require.NoError(t, err)
	assert.Equal(t, CategoryShopping, c)

	_, err = ParseFilterCategory("errands")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}
