package evaluator_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sandrolain/gospel/pkg/types"
)

type account struct {
	Owner   string  `spel:"owner" json:"holder"`
	Balance float64 `json:"balance,omitempty"`
	Nick    string
	Tags    []string `json:"tags"`
	secret  string
}

func (a account) Greeting(prefix string) string { return prefix + ", " + a.Owner }

func (a account) Audit() (string, error) { return "", errors.New("audit unavailable") }

func (a *account) Deposit(amount float64) float64 {
	a.Balance += amount
	return a.Balance
}

type base struct {
	ID int
}

type user struct {
	base
	Name string `json:"name"`
}

type pointerUser struct {
	*base
	Name string
}

type clash struct {
	A string `spel:"x"`
	B string `json:"x"`
}

func TestStructFields(t *testing.T) {
	acct := &account{Owner: "ann", Balance: 10, Nick: "a", Tags: []string{"vip"}, secret: "s"}
	tests := []struct {
		src  string
		want any
	}{
		{"owner", "ann"},
		{"holder", "ann"},
		{"Owner", "ann"},
		{"balance", 10.0},
		{"Balance", 10.0},
		{"nick", "a"},
		{"Nick", "a"},
		{"tags[0]", "vip"},
		{"tags.size()", 1.0},
		{"#this['owner']", "ann"},
		{"#this['Balance'] + 1", 11.0},
		{"greeting('hi')", "hi, ann"},
		{"Greeting('hey')", "hey, ann"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, eval(t, tt.src, acct, nil))
		})
	}

	requireCode(t, evalExpectError(t, "secret", acct, nil), types.ErrUndefinedProperty)
	requireCode(t, evalExpectError(t, "#this['nope']", acct, nil), types.ErrKeyNotFound)

	err := evalExpectError(t, "audit()", acct, nil)
	requireCode(t, err, types.ErrCallFailed)
	assert.Contains(t, err.Error(), "audit unavailable")
}

func TestStructPointerMethods(t *testing.T) {
	acct := &account{Owner: "ann", Balance: 10}
	assert.Equal(t, 15.0, eval(t, "deposit(5)", acct, nil))
	assert.Equal(t, 15.0, acct.Balance)

	// Pointer-receiver methods are not in the method set of a plain value.
	requireCode(t, evalExpectError(t, "deposit(5)", account{Owner: "bob"}, nil), types.ErrUndefinedMethod)
	assert.Equal(t, "yo, bob", eval(t, "greeting('yo')", account{Owner: "bob"}, nil))
}

func TestStructEmbedded(t *testing.T) {
	assert.Equal(t, 7.0, eval(t, "ID", user{base: base{ID: 7}, Name: "u"}, nil))
	assert.Equal(t, "u", eval(t, "name", user{base: base{ID: 7}, Name: "u"}, nil))

	assert.Equal(t, 3.0, eval(t, "ID", pointerUser{base: &base{ID: 3}}, nil))
	requireCode(t, evalExpectError(t, "ID", pointerUser{Name: "p"}, nil), types.ErrUndefinedProperty)
}

func TestStructTagPriority(t *testing.T) {
	assert.Equal(t, "from spel", eval(t, "x", clash{A: "from spel", B: "from json"}, nil))
}

func TestStructCollections(t *testing.T) {
	root := map[string]any{
		"accounts": []*account{
			{Owner: "ann", Balance: 10},
			{Owner: "bob", Balance: 250},
			{Owner: "cy", Balance: 90},
		},
	}
	assert.Equal(t, []any{"bob", "cy"}, eval(t, "accounts.?[balance > 50].![owner]", root, nil))
	assert.Equal(t, "cy", eval(t, "accounts.$[balance < 100].owner", root, nil))
	assert.Equal(t, []any{"hi, ann", "hi, bob", "hi, cy"}, eval(t, "accounts.![greeting('hi')]", root, nil))
}
