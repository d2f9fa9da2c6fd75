package i18n

import "fleetrent-backend/internal/domain"

// Template is the localized copy for one event. Placeholders are written as
// {name} and filled from the caller's Vars. An empty EmailBody means the event
// never produces an email. Blank lines in EmailBody separate paragraphs.
type Template struct {
	Title        string
	Message      string
	ActionLabel  string
	EmailSubject string
	EmailBody    string
}

type templateKey struct {
	Type    domain.NotificationType
	Variant string
}

// Variants selected by callers.
const (
	VariantTomorrow = "tomorrow"
	VariantUrgent   = "urgent"
	VariantHigh     = "high"
	VariantNotice   = "notice"
)

type localeData struct {
	DateLayout     string
	DayOne         string
	DayOther       string // %d is replaced by the count
	Greeting       string
	Footer         string
	GenericMessage string
}

var locales = map[string]localeData{
	"en": {
		DateLayout:     "Jan 2, 2006 15:04",
		DayOne:         "1 day",
		DayOther:       "%d days",
		Greeting:       "Hello {ownerName},",
		Footer:         "You are receiving this email because you own this organization on FleetRent.",
		GenericMessage: "You have a new notification.",
	},
	"fr": {
		DateLayout:     "02/01/2006 15:04",
		DayOne:         "1 jour",
		DayOther:       "%d jours",
		Greeting:       "Bonjour {ownerName},",
		Footer:         "Vous recevez cet e-mail car vous êtes propriétaire de cette organisation sur FleetRent.",
		GenericMessage: "Vous avez une nouvelle notification.",
	},
	"es": {
		DateLayout:     "02/01/2006 15:04",
		DayOne:         "1 día",
		DayOther:       "%d días",
		Greeting:       "Hola {ownerName}:",
		Footer:         "Recibe este correo porque es propietario de esta organización en FleetRent.",
		GenericMessage: "Tiene una nueva notificación.",
	},
}

var catalog = map[string]map[templateKey]Template{
	"en": {
		{domain.NotificationRentStarted, ""}: {
			Title:        "Rental started",
			Message:      "Contract {contract} for {car} is now active. Customer: {customer}.",
			ActionLabel:  "View rental",
			EmailSubject: "Rental {contract} has started",
			EmailBody:    "Contract {contract} for {car} became active on {startDate}.\n\nCustomer: {customer}",
		},
		{domain.NotificationRentCompleted, ""}: {
			Title:        "Rental completed",
			Message:      "Contract {contract} for {car} is completed. The vehicle was returned on {returnedAt}.",
			ActionLabel:  "View rental",
			EmailSubject: "Rental {contract} is completed",
			EmailBody:    "Contract {contract} for {car} is completed.\n\nThe vehicle was returned on {returnedAt} by {customer}.",
		},
		{domain.NotificationRentOverdue, ""}: {
			Title:        "Overdue rental",
			Message:      "Contract {contract} for {car} is {daysText} overdue. Expected return: {expectedEndDate}.",
			ActionLabel:  "View rental",
			EmailSubject: "Overdue: {car} ({contract}) is {daysText} late",
			EmailBody:    "Contract {contract} for {car} was due back on {expectedEndDate} and is now {daysText} overdue.\n\nCustomer: {customer}\nPhone: {customerPhone}\nEmail: {customerEmail}\n\nOutstanding balance: {balance}",
		},
		{domain.NotificationRentReturnReminder, ""}: {
			Title:        "Upcoming return",
			Message:      "{car} ({contract}) is due back in {daysText}, on {expectedEndDate}.",
			ActionLabel:  "View rental",
			EmailSubject: "Reminder: {car} is due back in {daysText}",
			EmailBody:    "Contract {contract} for {car} is due back on {expectedEndDate}.\n\nCustomer: {customer}\nPhone: {customerPhone}",
		},
		{domain.NotificationRentReturnReminder, VariantTomorrow}: {
			Title:        "Return due tomorrow",
			Message:      "{car} ({contract}) is due back tomorrow, on {expectedEndDate}.",
			ActionLabel:  "View rental",
			EmailSubject: "Reminder: {car} is due back tomorrow",
			EmailBody:    "Contract {contract} for {car} is due back tomorrow, on {expectedEndDate}.\n\nCustomer: {customer}\nPhone: {customerPhone}",
		},
		{domain.NotificationCarInsuranceExpiring, VariantUrgent}: {
			Title:        "Insurance expires in {daysText}",
			Message:      "The insurance of {car} expires on {expiryDate}. Renew it now to keep the vehicle rentable.",
			ActionLabel:  "View vehicle",
			EmailSubject: "Urgent: insurance of {car} expires in {daysText}",
			EmailBody:    "The insurance of {car} expires on {expiryDate}, in {daysText}.\n\nRenew it immediately: an uninsured vehicle must not be rented out.",
		},
		{domain.NotificationCarInsuranceExpiring, VariantHigh}: {
			Title:        "Insurance expires in {daysText}",
			Message:      "The insurance of {car} expires on {expiryDate}. Plan the renewal this week.",
			ActionLabel:  "View vehicle",
			EmailSubject: "Insurance of {car} expires in {daysText}",
			EmailBody:    "The insurance of {car} expires on {expiryDate}, in {daysText}.\n\nPlan the renewal this week.",
		},
		{domain.NotificationCarInsuranceExpiring, VariantNotice}: {
			Title:        "Insurance renewal coming up",
			Message:      "The insurance of {car} expires on {expiryDate}, in {daysText}.",
			ActionLabel:  "View vehicle",
			EmailSubject: "Insurance of {car} expires on {expiryDate}",
			EmailBody:    "The insurance of {car} expires on {expiryDate}, in {daysText}.\n\nYou have time, but remember to renew it.",
		},
		{domain.NotificationVehicleDoubleBooked, ""}: {
			Title:       "Possible double booking",
			Message:     "{car} has {overlapCount} other active rental(s) overlapping contract {contract}.",
			ActionLabel: "View rental",
		},
	},
	"fr": {
		{domain.NotificationRentStarted, ""}: {
			Title:        "Location démarrée",
			Message:      "Le contrat {contract} pour {car} est maintenant actif. Client : {customer}.",
			ActionLabel:  "Voir la location",
			EmailSubject: "La location {contract} a démarré",
			EmailBody:    "Le contrat {contract} pour {car} est actif depuis le {startDate}.\n\nClient : {customer}",
		},
		{domain.NotificationRentCompleted, ""}: {
			Title:        "Location terminée",
			Message:      "Le contrat {contract} pour {car} est terminé. Le véhicule a été restitué le {returnedAt}.",
			ActionLabel:  "Voir la location",
			EmailSubject: "La location {contract} est terminée",
			EmailBody:    "Le contrat {contract} pour {car} est terminé.\n\nLe véhicule a été restitué le {returnedAt} par {customer}.",
		},
		{domain.NotificationRentOverdue, ""}: {
			Title:        "Location en retard",
			Message:      "Le contrat {contract} pour {car} a {daysText} de retard. Retour prévu : {expectedEndDate}.",
			ActionLabel:  "Voir la location",
			EmailSubject: "Retard : {car} ({contract}) a {daysText} de retard",
			EmailBody:    "Le contrat {contract} pour {car} devait être restitué le {expectedEndDate} et a maintenant {daysText} de retard.\n\nClient : {customer}\nTéléphone : {customerPhone}\nE-mail : {customerEmail}\n\nSolde restant : {balance}",
		},
		{domain.NotificationRentReturnReminder, ""}: {
			Title:        "Retour à venir",
			Message:      "{car} ({contract}) doit être restitué dans {daysText}, le {expectedEndDate}.",
			ActionLabel:  "Voir la location",
			EmailSubject: "Rappel : {car} doit être restitué dans {daysText}",
			EmailBody:    "Le contrat {contract} pour {car} se termine le {expectedEndDate}.\n\nClient : {customer}\nTéléphone : {customerPhone}",
		},
		{domain.NotificationRentReturnReminder, VariantTomorrow}: {
			Title:        "Retour prévu demain",
			Message:      "{car} ({contract}) doit être restitué demain, le {expectedEndDate}.",
			ActionLabel:  "Voir la location",
			EmailSubject: "Rappel : {car} doit être restitué demain",
			EmailBody:    "Le contrat {contract} pour {car} se termine demain, le {expectedEndDate}.\n\nClient : {customer}\nTéléphone : {customerPhone}",
		},
		{domain.NotificationCarInsuranceExpiring, VariantUrgent}: {
			Title:        "L'assurance expire dans {daysText}",
			Message:      "L'assurance de {car} expire le {expiryDate}. Renouvelez-la maintenant pour continuer à louer le véhicule.",
			ActionLabel:  "Voir le véhicule",
			EmailSubject: "Urgent : l'assurance de {car} expire dans {daysText}",
			EmailBody:    "L'assurance de {car} expire le {expiryDate}, dans {daysText}.\n\nRenouvelez-la immédiatement : un véhicule non assuré ne doit pas être loué.",
		},
		{domain.NotificationCarInsuranceExpiring, VariantHigh}: {
			Title:        "L'assurance expire dans {daysText}",
			Message:      "L'assurance de {car} expire le {expiryDate}. Prévoyez le renouvellement cette semaine.",
			ActionLabel:  "Voir le véhicule",
			EmailSubject: "L'assurance de {car} expire dans {daysText}",
			EmailBody:    "L'assurance de {car} expire le {expiryDate}, dans {daysText}.\n\nPrévoyez le renouvellement cette semaine.",
		},
		{domain.NotificationCarInsuranceExpiring, VariantNotice}: {
			Title:        "Renouvellement d'assurance à prévoir",
			Message:      "L'assurance de {car} expire le {expiryDate}, dans {daysText}.",
			ActionLabel:  "Voir le véhicule",
			EmailSubject: "L'assurance de {car} expire le {expiryDate}",
			EmailBody:    "L'assurance de {car} expire le {expiryDate}, dans {daysText}.\n\nVous avez le temps, mais pensez à la renouveler.",
		},
		{domain.NotificationVehicleDoubleBooked, ""}: {
			Title:       "Double réservation possible",
			Message:     "{car} a {overlapCount} autre(s) location(s) active(s) qui chevauchent le contrat {contract}.",
			ActionLabel: "Voir la location",
		},
	},
	"es": {
		{domain.NotificationRentStarted, ""}: {
			Title:        "Alquiler iniciado",
			Message:      "El contrato {contract} de {car} ya está activo. Cliente: {customer}.",
			ActionLabel:  "Ver alquiler",
			EmailSubject: "El alquiler {contract} ha comenzado",
			EmailBody:    "El contrato {contract} de {car} está activo desde el {startDate}.\n\nCliente: {customer}",
		},
		{domain.NotificationRentCompleted, ""}: {
			Title:        "Alquiler completado",
			Message:      "El contrato {contract} de {car} se ha completado. El vehículo se devolvió el {returnedAt}.",
			ActionLabel:  "Ver alquiler",
			EmailSubject: "El alquiler {contract} se ha completado",
			EmailBody:    "El contrato {contract} de {car} se ha completado.\n\n{customer} devolvió el vehículo el {returnedAt}.",
		},
		{domain.NotificationRentOverdue, ""}: {
			Title:        "Alquiler vencido",
			Message:      "El contrato {contract} de {car} lleva {daysText} de retraso. Devolución prevista: {expectedEndDate}.",
			ActionLabel:  "Ver alquiler",
			EmailSubject: "Retraso: {car} ({contract}) lleva {daysText} de retraso",
			EmailBody:    "El contrato {contract} de {car} debía devolverse el {expectedEndDate} y lleva {daysText} de retraso.\n\nCliente: {customer}\nTeléfono: {customerPhone}\nCorreo: {customerEmail}\n\nSaldo pendiente: {balance}",
		},
		{domain.NotificationRentReturnReminder, ""}: {
			Title:        "Devolución próxima",
			Message:      "{car} ({contract}) debe devolverse en {daysText}, el {expectedEndDate}.",
			ActionLabel:  "Ver alquiler",
			EmailSubject: "Recordatorio: {car} debe devolverse en {daysText}",
			EmailBody:    "El contrato {contract} de {car} termina el {expectedEndDate}.\n\nCliente: {customer}\nTeléfono: {customerPhone}",
		},
		{domain.NotificationRentReturnReminder, VariantTomorrow}: {
			Title:        "Devolución mañana",
			Message:      "{car} ({contract}) debe devolverse mañana, el {expectedEndDate}.",
			ActionLabel:  "Ver alquiler",
			EmailSubject: "Recordatorio: {car} debe devolverse mañana",
			EmailBody:    "El contrato {contract} de {car} termina mañana, el {expectedEndDate}.\n\nCliente: {customer}\nTeléfono: {customerPhone}",
		},
		{domain.NotificationCarInsuranceExpiring, VariantUrgent}: {
			Title:        "El seguro vence en {daysText}",
			Message:      "El seguro de {car} vence el {expiryDate}. Renuévelo ahora para seguir alquilando el vehículo.",
			ActionLabel:  "Ver vehículo",
			EmailSubject: "Urgente: el seguro de {car} vence en {daysText}",
			EmailBody:    "El seguro de {car} vence el {expiryDate}, en {daysText}.\n\nRenuévelo de inmediato: un vehículo sin seguro no debe alquilarse.",
		},
		{domain.NotificationCarInsuranceExpiring, VariantHigh}: {
			Title:        "El seguro vence en {daysText}",
			Message:      "El seguro de {car} vence el {expiryDate}. Planifique la renovación esta semana.",
			ActionLabel:  "Ver vehículo",
			EmailSubject: "El seguro de {car} vence en {daysText}",
			EmailBody:    "El seguro de {car} vence el {expiryDate}, en {daysText}.\n\nPlanifique la renovación esta semana.",
		},
		// No notice-tier copy yet: Spanish owners get the English text for it.
		{domain.NotificationVehicleDoubleBooked, ""}: {
			Title:       "Posible doble reserva",
			Message:     "{car} tiene {overlapCount} otro(s) alquiler(es) activo(s) que se solapan con el contrato {contract}.",
			ActionLabel: "Ver alquiler",
		},
	},
}
