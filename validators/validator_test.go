package validators

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listingInput struct {
	Title     string  `json:"title" validate:"required,max=10"`
	Price     Numeric `json:"price" validate:"omitempty,numeric,price"`
	Category  Numeric `json:"category_id" validate:"required,numeric,min=1"`
	Condition string  `json:"condition_type" validate:"required,oneof=new good"`
	Email     string  `json:"email" validate:"omitempty,email"`
}

func decode(t *testing.T, body string) listingInput {
	t.Helper()
	var in listingInput
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	return in
}

func TestValidate_Valid(t *testing.T) {
	v := NewValidator()
	in := decode(t, `{"title":"Phone","price":"12.50","category_id":1,"condition_type":"good"}`)

	require.NoError(t, v.Validate(in))
	assert.Equal(t, 12.5, in.Price.Value)
	assert.Equal(t, uint(1), in.Category.Uint())
}

func TestValidate_FieldMessages(t *testing.T) {
	v := NewValidator()
	in := decode(t, `{"title":"A very long title","price":"abc","condition_type":"broken","email":"nope"}`)

	err := v.Validate(in)
	require.Error(t, err)

	fe, ok := Collect(err)
	require.True(t, ok)
	assert.Equal(t, "Title must not exceed 10 characters", fe["title"])
	assert.Equal(t, "Price must be a number", fe["price"])
	assert.Equal(t, "Category_id is required", fe["category_id"])
	assert.Equal(t, "Condition_type must be one of: new, good", fe["condition_type"])
	assert.Equal(t, "Invalid email format", fe["email"])
}

func TestValidate_NegativePrice(t *testing.T) {
	v := NewValidator()
	in := decode(t, `{"title":"Phone","price":-1,"category_id":"2","condition_type":"new"}`)

	fe, ok := Collect(v.Validate(in))
	require.True(t, ok)
	assert.Equal(t, "Price must be a non-negative number", fe["price"])
	assert.Len(t, fe, 1)
}

func TestValidate_AbsentOptionalPrice(t *testing.T) {
	v := NewValidator()
	in := decode(t, `{"title":"Phone","category_id":3,"condition_type":"new"}`)

	require.NoError(t, v.Validate(in))
	assert.False(t, in.Price.Set)
}

func TestNumeric_UnmarshalParam(t *testing.T) {
	var n Numeric
	require.NoError(t, n.UnmarshalParam(" 42 "))
	assert.True(t, n.Set)
	assert.True(t, n.Valid)
	assert.Equal(t, 42.0, n.Value)

	require.NoError(t, n.UnmarshalParam(""))
	assert.False(t, n.Set)

	require.NoError(t, n.UnmarshalParam("x1"))
	assert.True(t, n.Set)
	assert.False(t, n.Valid)
	assert.Equal(t, uint(0), n.Uint())
}

func TestNumeric_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		A Numeric `json:"a"`
		B Numeric `json:"b"`
	}{A: NewNumeric(3.5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":3.5,"b":null}`, string(out))
}

func TestFieldErrors_Error(t *testing.T) {
	fe := FieldErrors{}
	fe.Add("b", "second")
	fe.Add("a", "first")
	fe.Add("a", "ignored")

	assert.Equal(t, "validation failed: a: first; b: second", fe.Error())
}
