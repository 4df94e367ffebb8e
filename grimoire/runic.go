package grimoire

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mielalabs/mpl-magick/mpl"
)

func (r *Registry) runicModule() Module {
	return Module{
		Name: "runic",
		Doc:  "text, encodings and sigils",
		Functions: []Function{
			{Name: "encode", Params: []string{"text", "method"}, Required: 1, Doc: "encode text (base64 or hex); other methods return text unchanged", Handler: encodeRunes},
			{Name: "decode", Params: []string{"text", "method"}, Required: 1, Doc: "decode base64 or hex text", Handler: decodeRunes},
			{Name: "forge_sigil", Params: []string{"intent"}, Required: 1, Doc: "upper-case, strip vowels and spaces, drop repeated letters", Handler: forgeSigil},
			{Name: "title", Params: []string{"text"}, Required: 1, Doc: "title-case text", Handler: titleCase},
			{Name: "uuid", Doc: "random UUID", Handler: newUUID},
		},
	}
}

func encodeRunes(_ context.Context, args []mpl.Value) (mpl.Value, error) {
	text := args[0].String()
	switch optString(args, 1, "base64") {
	case "base64":
		return mpl.NewString(base64.StdEncoding.EncodeToString([]byte(text))), nil
	case "hex":
		return mpl.NewString(hex.EncodeToString([]byte(text))), nil
	default:
		return mpl.NewString(text), nil
	}
}

func decodeRunes(_ context.Context, args []mpl.Value) (mpl.Value, error) {
	text := args[0].String()
	method := optString(args, 1, "base64")
	switch method {
	case "base64":
		raw, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return mpl.NewVoid(), fmt.Errorf("invalid base64: %w", err)
		}
		return mpl.NewString(string(raw)), nil
	case "hex":
		raw, err := hex.DecodeString(text)
		if err != nil {
			return mpl.NewVoid(), fmt.Errorf("invalid hex: %w", err)
		}
		return mpl.NewString(string(raw)), nil
	default:
		return mpl.NewString(text), nil
	}
}

// ForgeSigil applies the chaos-magick reduction: upper-case the intent, drop
// vowels and whitespace, then keep only the first occurrence of each letter.
func ForgeSigil(intent string) string {
	upper := cases.Upper(language.Und).String(intent)
	seen := make(map[rune]struct{})
	var b strings.Builder
	for _, r := range upper {
		if unicode.IsSpace(r) || strings.ContainsRune("AEIOU", r) {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		b.WriteRune(r)
	}
	return b.String()
}

func forgeSigil(_ context.Context, args []mpl.Value) (mpl.Value, error) {
	return mpl.NewString(ForgeSigil(args[0].String())), nil
}

func titleCase(_ context.Context, args []mpl.Value) (mpl.Value, error) {
	return mpl.NewString(cases.Title(language.Und).String(args[0].String())), nil
}

func newUUID(context.Context, []mpl.Value) (mpl.Value, error) {
	return mpl.NewString(uuid.NewString()), nil
}
