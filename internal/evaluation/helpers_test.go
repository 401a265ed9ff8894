package evaluation

import "context"

// letterEmbedder embeds text as letter frequencies.
type letterEmbedder struct{}

func (letterEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		v := make([]float64, 26)
		for _, c := range text {
			if c >= 'a' && c <= 'z' {
				v[c-'a']++
			} else if c >= 'A' && c <= 'Z' {
				v[c-'A']++
			}
		}
		out[i] = v
	}
	return out, nil
}
