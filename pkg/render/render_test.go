package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimpleFormat(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain", in: "hello", want: "hello"},
		{name: "blank line", in: "a\n\nb", want: "a<br /><br />b"},
		{name: "crlf", in: "a\r\nb", want: "a<br />b"},
		{name: "escapes", in: "<b>&\"", want: "&lt;b&gt;&amp;&#34;"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SimpleFormat(tc.in))
			assert.Equal(t, tc.want, Simple{}.SimpleFormat(tc.in))
		})
	}
}
