package forms

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FieldErrors associe un champ (nom JSON) à son message d'erreur.
type FieldErrors map[string]string

func (fe FieldErrors) Add(field, msg string) {
	if _, exists := fe[field]; !exists {
		fe[field] = msg
	}
}

func (fe FieldErrors) Empty() bool { return len(fe) == 0 }

// checker est implémenté par les payloads qui ont des règles croisées
// que les tags ne savent pas exprimer (montants décimaux, index...).
type checker interface {
	check(FieldErrors)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Validate vérifie un payload avant tout appel réseau. Une map vide signifie
// que le payload peut être sérialisé.
func Validate(payload any) FieldErrors {
	out := FieldErrors{}

	if err := engine().Struct(payload); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			for _, fe := range ve {
				out.Add(fieldKey(fe), messageForTag(fe.Tag(), fe.Param()))
			}
		} else {
			out.Add("_", "Formulaire invalide.")
		}
	}

	if c, ok := payload.(checker); ok {
		c.check(out)
	}
	return out
}

// fieldKey retire le nom de la structure racine : "ProductPayload.name" -> "name".
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func messageForTag(tag, param string) string {
	switch tag {
	case "required":
		return "Ce champ est obligatoire."
	case "email":
		return "Saisissez une adresse e-mail valide."
	case "min":
		return "Valeur trop courte ou trop petite (minimum " + param + ")."
	case "max":
		return "Valeur trop longue ou trop grande (maximum " + param + ")."
	case "gtfield":
		return "Doit être postérieur à " + param + "."
	case "alphanum":
		return "Lettres et chiffres uniquement."
	case "oneof":
		return "Valeur non autorisée."
	default:
		return "Valeur invalide."
	}
}

// Payload est un formulaire prêt à être envoyé en multipart.
type Payload interface {
	Fields() (map[string]string, error)
}
