package textproc

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "pagination and rules",
			input: "Vistos.\nPágina 1 de 3\nRelatório ______ do caso\n12\nfim",
			want:  "Vistos. Relatório do caso fim",
		},
		{
			name:  "two digit year in the nineties",
			input: "aplica-se a Lei nº 8.078/90 ao caso",
			want:  "aplica-se a Lei 8078/1990 ao caso",
		},
		{
			name:  "two digit year in the two thousands",
			input: "conforme Lei Federal nº 13.105/15",
			want:  "conforme Lei 13105/2015",
		},
		{
			name:  "four digit year kept",
			input: "Lei 10.406/2002",
			want:  "Lei 10406/2002",
		},
		{
			name:  "artigo canonicalized",
			input: "nos termos do Artigo 5 da CF",
			want:  "nos termos do art. 5 da CF",
		},
		{
			name:  "repeated punctuation",
			input: "Recurso provido!!! Assim decidiu-se...",
			want:  "Recurso provido! Assim decidiu-se.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.input))
		})
	}
}

func TestExpandYear(t *testing.T) {
	assert.Equal(t, "1951", ExpandYear("51"))
	assert.Equal(t, "2050", ExpandYear("50"))
	assert.Equal(t, "2000", ExpandYear("00"))
	assert.Equal(t, "1988", ExpandYear("1988"))
}

func TestExtractEntities(t *testing.T) {
	text := "Processo 0001234-56.2020.8.26.0100. Nos termos da Lei nº 8.078/90, art. 6, § 1º, inciso VIII, " +
		"condeno ao pagamento de R$ 10.000,00 em 15/03/2021. CPF 123.456.789-09 e CNPJ 12.345.678/0001-95. " +
		"Reitera-se o artigo 6 da Lei nº 8.078/90."

	e := ExtractEntities(text)

	assert.Equal(t, []string{"Lei 8.078/90"}, e.Laws)
	assert.Equal(t, []string{"Art. 6"}, e.Articles)
	assert.Equal(t, []string{"§ 1"}, e.Paragraphs)
	assert.Equal(t, []string{"inciso VIII"}, e.Items)
	assert.Equal(t, []string{"0001234-56.2020.8.26.0100"}, e.ProcessNumbers)
	assert.Equal(t, []string{"R$ 10.000,00"}, e.MonetaryValues)
	assert.Contains(t, e.Dates, "15/03/2021")
	assert.Equal(t, []string{"123.***.**-09", "12.***.***/****-95"}, e.TaxIdentifiers)
}

func TestAnonymizeDocument(t *testing.T) {
	assert.Equal(t, "123.***.**-09", AnonymizeDocument("123.456.789-09"))
	assert.Equal(t, "12.***.***/****-95", AnonymizeDocument("12.345.678/0001-95"))
}

func TestExtractFacts(t *testing.T) {
	text := "O autor ajuizou ação com base no art. 186 do Código Civil. Curto art. 1. " +
		"A ré contestou sem citar norma alguma. Incide o disposto na Lei 8.078/1990 sobre a relação de consumo!"

	facts := ExtractFacts(text)
	require.Len(t, facts, 2)
	assert.Equal(t, "O autor ajuizou ação com base no art. 186 do Código Civil", facts[0])
	assert.Contains(t, facts[1], "Lei 8.078/1990")

	assert.Empty(t, ExtractFacts(""))
}

func TestSplitSentences(t *testing.T) {
	text := "Conforme o art. 5 da CF, o valor de R$ 1.500,00 é devido. Recurso provido! Publique-se?"
	assert.Equal(t, []string{
		"Conforme o art. 5 da CF, o valor de R$ 1.500,00 é devido",
		"Recurso provido",
		"Publique-se",
	}, splitSentences(text))
}

func TestExtractKeyPhrases_Max(t *testing.T) {
	sentence := "Aplica-se o artigo 927 do Código Civil ao caso concreto"
	text := strings.Repeat(sentence+". ", 15)

	assert.Len(t, ExtractKeyPhrases(text, 3), 3)
	assert.Len(t, ExtractFacts(text), MaxFacts)
}

func TestChunk(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Chunk("", 10, 2))
		assert.Empty(t, Chunk("abc", 0, 0))
	})

	t.Run("short text is one chunk", func(t *testing.T) {
		assert.Equal(t, []string{"Uma frase."}, Chunk("Uma frase.", 1000, 200))
	})

	t.Run("breaks at sentence boundary", func(t *testing.T) {
		text := "Primeira frase. Segunda frase longa aqui."
		chunks := Chunk(text, 20, 5)
		require.NotEmpty(t, chunks)
		assert.Equal(t, "Primeira frase.", chunks[0])
		assert.True(t, strings.HasSuffix(chunks[len(chunks)-1], "aqui."))
	})

	t.Run("overlap shares characters", func(t *testing.T) {
		text := strings.Repeat("a", 25)
		chunks := Chunk(text, 10, 3)
		require.Len(t, chunks, 4)
		assert.Len(t, chunks[0], 10)
		assert.Len(t, chunks[1], 10)
	})

	t.Run("multibyte text is not split inside a rune", func(t *testing.T) {
		text := strings.Repeat("ação ", 50)
		for _, c := range Chunk(text, 17, 4) {
			assert.True(t, strings.ToValidUTF8(c, "?") == c)
		}
	})
}

func TestHighlights(t *testing.T) {
	text := "O tribunal reconheceu o dano moral sofrido pelo consumidor em razão da negativação indevida"

	t.Run("context window", func(t *testing.T) {
		hs := Highlights(text, "moral", 2)
		assert.Equal(t, []string{"o dano moral sofrido pelo"}, hs)
	})

	t.Run("short query words ignored", func(t *testing.T) {
		assert.Empty(t, Highlights(text, "o em da", 10))
	})

	t.Run("case insensitive and deduplicated", func(t *testing.T) {
		hs := Highlights(text, "DANO dano", 100)
		assert.Len(t, hs, 1)
	})

	t.Run("at most five", func(t *testing.T) {
		var b strings.Builder
		for i := 0; i < 10; i++ {
			fmt.Fprintf(&b, "item%d dano ", i)
		}
		assert.Len(t, Highlights(b.String(), "dano", 1), MaxHighlights)
	})
}
