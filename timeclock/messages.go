package timeclock

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Bilingual is a user-facing message in English and Spanish.
type Bilingual struct {
	English string `json:"english"`
	Spanish string `json:"spanish"`
}

// IsZero reports whether no message was set.
func (b Bilingual) IsZero() bool { return b.English == "" && b.Spanish == "" }

// Message keys. Arguments are always pre-formatted strings so the printer
// never applies locale digit grouping to employee IDs.
const (
	msgAlreadyClockedIn  = "already_clocked_in"
	msgAlreadyClockedOut = "already_clocked_out"
	msgClockedIn         = "clocked_in"
	msgClockedOut        = "clocked_out"
	msgUnknownEmployee   = "unknown_employee"
	msgInvalidEmployeeID = "invalid_employee_id"
)

var (
	english = language.English
	spanish = language.Spanish

	messages = buildCatalog()
	enPrint  = message.NewPrinter(english, message.Catalog(messages))
	esPrint  = message.NewPrinter(spanish, message.Catalog(messages))
)

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(english))
	set := func(key, en, es string) {
		// SetString only fails on malformed message syntax.
		if err := b.SetString(english, key, en); err != nil {
			panic(err)
		}
		if err := b.SetString(spanish, key, es); err != nil {
			panic(err)
		}
	}
	set(msgAlreadyClockedIn, "%s you already clocked in today", "%s ya has fichado hoy")
	set(msgAlreadyClockedOut, "%s you already clocked out today", "%s ya saliste hoy")
	set(msgClockedIn, "%s clocked in at %s", "%s fichó la entrada a las %s")
	set(msgClockedOut, "%s clocked out at %s", "%s fichó la salida a las %s")
	set(msgUnknownEmployee, "Employee ID %s was not found", "No se encontró el ID de empleado %s")
	set(msgInvalidEmployeeID, "Employee ID must be %s digits", "El ID de empleado debe tener %s dígitos")
	return b
}

func bilingual(key string, args ...any) Bilingual {
	return Bilingual{
		English: enPrint.Sprintf(key, args...),
		Spanish: esPrint.Sprintf(key, args...),
	}
}

// AlreadyClockedMessage is shown when a same-day punch is repeated.
func AlreadyClockedMessage(emp Employee, dir Direction) Bilingual {
	if dir == CheckOut {
		return bilingual(msgAlreadyClockedOut, emp.FullName())
	}
	return bilingual(msgAlreadyClockedIn, emp.FullName())
}

// ClockedMessage confirms a recorded punch.
func ClockedMessage(emp Employee, ev ClockEvent) Bilingual {
	at := ev.Timestamp.Format("15:04")
	if ev.Direction == CheckOut {
		return bilingual(msgClockedOut, emp.FullName(), at)
	}
	return bilingual(msgClockedIn, emp.FullName(), at)
}

// UnknownEmployeeMessage is shown for IDs that resolve to no employee.
func UnknownEmployeeMessage(id EmployeeID) Bilingual {
	return bilingual(msgUnknownEmployee, id.String())
}

// InvalidEmployeeIDMessage is shown for malformed or out-of-range IDs.
func InvalidEmployeeIDMessage() Bilingual {
	return bilingual(msgInvalidEmployeeID, "4")
}
