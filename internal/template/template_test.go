package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name   string
		tmpl   string
		fields map[string]string
		want   string
	}{
		{
			name:   "substitutes known field",
			tmpl:   "Hi {name}!",
			fields: map[string]string{"name": "Acme"},
			want:   "Hi Acme!",
		},
		{
			name:   "missing known field becomes empty string",
			tmpl:   "Hi {name}!",
			fields: map[string]string{},
			want:   "Hi !",
		},
		{
			name:   "unrecognized placeholder left verbatim",
			tmpl:   "Hi {unknown}",
			fields: map[string]string{"name": "Acme"},
			want:   "Hi {unknown}",
		},
		{
			name:   "multiple placeholders",
			tmpl:   "{name} <{email}> at {website}",
			fields: map[string]string{"name": "Acme", "email": "hi@acme.io", "website": "acme.io"},
			want:   "Acme <hi@acme.io> at acme.io",
		},
		{
			name: "no placeholders passes through",
			tmpl: "plain text",
			want: "plain text",
		},
		{
			name:   "nil fields",
			tmpl:   "Hello {business_name}",
			fields: nil,
			want:   "Hello ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.tmpl, tt.fields))
		})
	}
}

func TestRenderIdempotent(t *testing.T) {
	fields := map[string]string{"name": "Acme", "phone": "212-555-0100"}
	tmpl := "Hi {name}, call us back at {phone} {smiley}"

	first := Render(tmpl, fields)
	for range 5 {
		assert.Equal(t, first, Render(tmpl, fields))
	}
}
