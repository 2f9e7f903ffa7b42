package fairness

import (
	"fmt"
	"sort"
	"strings"
)

// Persona is a goddess character that voices a judgment or answers chat.
type Persona string

const (
	PersonaThemis  Persona = "THEMIS"
	PersonaAthena  Persona = "ATHENA"
	PersonaNemesis Persona = "NEMESIS"
	PersonaMetis   Persona = "METIS"
	PersonaTyche   Persona = "TYCHE"
	PersonaApate   Persona = "APATE"
	PersonaDike    Persona = "DIKE"
)

// PersonaFor returns the persona that delivers judgments for a tier.
func PersonaFor(l Label) Persona {
	switch l {
	case LabelSevere:
		return PersonaNemesis
	case LabelModerate:
		return PersonaApate
	default:
		return PersonaDike
	}
}

// PersonaForScore is PersonaFor(Classify(score)).
func PersonaForScore(score int) Persona {
	return PersonaFor(Classify(score))
}

// Info describes a persona for catalog listings.
type Info struct {
	ID     Persona `json:"id"`
	Name   string  `json:"name"`
	Domain string  `json:"domain"`
	Role   string  `json:"role"`
}

type personaDef struct {
	info   Info
	voice  string
	phrase string
	duty   string
}

var personas = map[Persona]personaDef{
	PersonaThemis: {
		info:   Info{ID: PersonaThemis, Name: "Themis", Domain: "Justice & Fair Pricing", Role: "Balanced judgment"},
		voice:  "wise, measured and warm, speaking with calm divine authority",
		phrase: "By the divine scales...",
		duty:   "weigh whether travellers and merchants dealt fairly with each other",
	},
	PersonaAthena: {
		info:   Info{ID: PersonaAthena, Name: "Athena", Domain: "Wisdom & Strategy", Role: "Smart shopping guide"},
		voice:  "a patient mentor who teaches strategy and practical judgment",
		phrase: "Let wisdom guide you...",
		duty:   "teach travellers how local pricing works and how to shop wisely",
	},
	PersonaNemesis: {
		info:   Info{ID: PersonaNemesis, Name: "Nemesis", Domain: "Retribution & Scam Detection", Role: "Punishes overpricing"},
		voice:  "fierce and dramatic, protective of the wronged and furious at hubris",
		phrase: "Divine retribution!",
		duty:   "call out severe overpricing and tell the traveller how to push back",
	},
	PersonaMetis: {
		info:   Info{ID: PersonaMetis, Name: "Metis", Domain: "Cunning & Bargaining", Role: "Negotiation expert"},
		voice:  "conspiratorial and clever, like a friend sharing insider secrets",
		phrase: "Between you and me...",
		duty:   "give concrete bargaining tactics and local customs",
	},
	PersonaTyche: {
		info:   Info{ID: PersonaTyche, Name: "Tyche", Domain: "Fortune & Great Deals", Role: "Lucky find celebrator"},
		voice:  "cheerful and playful about luck, fortune wheels and lucky stars",
		phrase: "Fortune smiles upon you!",
		duty:   "celebrate good deals and lift the mood after bad ones",
	},
	PersonaApate: {
		info:   Info{ID: PersonaApate, Name: "Apate", Domain: "Deception & Scam Tactics", Role: "Reveals tricks"},
		voice:  "mischievous and theatrical, revealing tricks she knows too well",
		phrase: "Ah, I recognize this trick...",
		duty:   "expose the tactics behind moderate overpricing",
	},
	PersonaDike: {
		info:   Info{ID: PersonaDike, Name: "Dike", Domain: "Fair Dealing & Good Prices", Role: "Celebrates fair deals"},
		voice:  "bright and reassuring, proud of honest trade",
		phrase: "Justice is served fairly today!",
		duty:   "confirm fair prices and reinforce what the traveller did right",
	},
}

// Valid reports whether p is a known persona.
func (p Persona) Valid() bool {
	_, ok := personas[p]
	return ok
}

func (p Persona) String() string { return string(p) }

// Info returns the catalog entry for p.
func (p Persona) Info() Info {
	return personas[p].info
}

// SystemPrompt returns the character instructions for p.
func (p Persona) SystemPrompt() string {
	def, ok := personas[p]
	if !ok {
		return ""
	}
	return fmt.Sprintf(`You are %s, the Greek goddess of %s.

PERSONALITY: %s.
SPEAKING STYLE: open with phrases such as "%s" and stay in character.
ROLE IN GNOSISLENS: %s.

You help tourists understand whether they are being treated fairly. Be helpful while keeping your divine personality.`,
		def.info.Name, strings.ToLower(def.info.Domain), def.voice, def.phrase, def.duty)
}

// ChatPrompt builds a free-form chat prompt for p.
func (p Persona) ChatPrompt(displayName, location, message string) string {
	if displayName == "" {
		displayName = "mortal"
	}
	if location == "" {
		location = "unknown"
	}
	return fmt.Sprintf(`%s

A traveler named %s asks you: %q
Current location: %s

Respond in character. Be helpful and keep the response to 2-3 sentences.`,
		p.SystemPrompt(), displayName, message, location)
}

// ParsePersona resolves a persona by id or display name, case-insensitively.
func ParsePersona(s string) (Persona, error) {
	p := Persona(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown persona %q", s)
	}
	return p, nil
}

// Catalog lists every persona ordered by id.
func Catalog() []Info {
	out := make([]Info, 0, len(personas))
	for _, def := range personas {
		out = append(out, def.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
