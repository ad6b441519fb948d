package recipe

import (
	"encoding/json"
	"fmt"
	"strings"
)

// modelRecipe accepts the field spellings chat models tend to produce.
type modelRecipe struct {
	Name         string          `json:"name"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Ingredients  json.RawMessage `json:"ingredients"`
	Instructions json.RawMessage `json:"instructions"`
	CookingTime  json.RawMessage `json:"cookingTime"`
	CookTime     json.RawMessage `json:"cook_time"`
	Servings     json.RawMessage `json:"servings"`
	Difficulty   string          `json:"difficulty"`
}

// parseContent decodes the model's reply. When it is not usable JSON the
// reply text becomes the instructions of a fallback recipe built from the
// requested ingredients, and fallback is true.
func parseContent(content string, ingredients []string) (g Generated, fallback bool) {
	body := stripFence(content)

	var raw modelRecipe
	if err := json.Unmarshal([]byte(body), &raw); err == nil {
		if wrapped := unwrap(body); wrapped != nil {
			raw = *wrapped
		}
		g = Generated{
			Name:         firstNonEmpty(raw.Name, raw.Title),
			Description:  raw.Description,
			Ingredients:  stringList(raw.Ingredients),
			Instructions: stringList(raw.Instructions),
			CookingTime:  durationText(raw.CookingTime, raw.CookTime),
			Servings:     intValue(raw.Servings),
			Difficulty:   raw.Difficulty,
		}
		if g.Name != "" && len(g.Instructions) > 0 {
			if len(g.Ingredients) == 0 {
				g.Ingredients = ingredients
			}
			return g, false
		}
	}

	return Generated{
		Name:         FallbackName,
		Description:  "Recipe created based on your selected ingredients",
		Ingredients:  ingredients,
		Instructions: splitLines(content),
	}, true
}

// unwrap handles replies shaped {"recipe": {...}}.
func unwrap(body string) *modelRecipe {
	var outer struct {
		Recipe *modelRecipe `json:"recipe"`
	}
	if err := json.Unmarshal([]byte(body), &outer); err != nil || outer.Recipe == nil {
		return nil
	}
	return outer.Recipe
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// stringList reads either a JSON array of strings (or objects with a
// "name"/"step"/"text" field) or one newline separated string.
func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var strs []string
	if err := json.Unmarshal(raw, &strs); err == nil {
		return CleanIngredients(strs)
	}

	// A failed decode above may have partly filled strs, so objects start
	// from an empty list.
	var objects []map[string]any
	if err := json.Unmarshal(raw, &objects); err == nil {
		var list []string
		for _, o := range objects {
			for _, key := range []string{"name", "step", "text", "instruction", "item"} {
				if v, ok := o[key].(string); ok && v != "" {
					list = append(list, objectLine(o, v))
					break
				}
			}
		}
		return list
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return splitLines(text)
	}
	return nil
}

func objectLine(o map[string]any, name string) string {
	qty, hasQty := o["quantity"]
	if !hasQty {
		qty, hasQty = o["amount"]
	}
	if !hasQty {
		return name
	}
	return strings.TrimSpace(fmt.Sprintf("%v %s", qty, name))
}

func durationText(candidates ...json.RawMessage) string {
	for _, raw := range candidates {
		if len(raw) == 0 {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
		var n float64
		if err := json.Unmarshal(raw, &n); err == nil && n > 0 {
			return fmt.Sprintf("%d minutes", int(n))
		}
	}
	return ""
}

func intValue(raw json.RawMessage) int {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n)
	}
	return 0
}

// splitLines breaks free text into steps, dropping list numbering.
func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		if i := strings.IndexAny(line, ".)"); i > 0 && i <= 3 && isDigits(line[:i]) && (i+1 == len(line) || line[i+1] == ' ') {
			line = strings.TrimSpace(line[i+1:])
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
