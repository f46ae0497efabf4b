package notify

import (
	"fmt"
	"strings"

	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/utils"
)

const signature = "Cordialement,\nL'équipe French Driver"

func customerName(b models.Booking) string {
	if b.User == nil {
		return ""
	}
	return b.User.DisplayName()
}

func customerPhone(b models.Booking) string {
	if b.User == nil || strings.TrimSpace(b.User.PhoneNumber) == "" {
		return "Non renseigné"
	}
	return b.User.PhoneNumber
}

func price(v float64) string {
	return fmt.Sprintf("%.2f€", v)
}

// BookingConfirmationEmail is sent to the customer once the booking is stored.
func BookingConfirmationEmail(b models.Booking) Email {
	to := []string{}
	if b.User != nil && b.User.Email != "" {
		to = append(to, b.User.Email)
	}
	body := fmt.Sprintf(`Bonjour %s,

Votre réservation VTC a été enregistrée avec succès.

Détails de votre réservation :
- Numéro de confirmation : %s
- Départ : %s
- Destination : %s
- Heure prévue : %s
- Prix estimé : %s

Statut : %s

Nous vous tiendrons informé de l'évolution de votre réservation.

%s
`, customerName(b), b.ConfirmationNumber, b.PickupAddress, b.DestinationAddress,
		utils.FormatFrench(b.ScheduledTime), price(b.EstimatedPrice), b.Status.Label(), signature)

	return Email{
		To:      to,
		Subject: "Confirmation de votre réservation VTC #" + b.ConfirmationNumber,
		Body:    body,
	}
}

// DriverAssignmentEmail tells the customer who will drive them.
func DriverAssignmentEmail(b models.Booking) (Email, bool) {
	if b.Driver == nil || b.User == nil || b.User.Email == "" {
		return Email{}, false
	}
	body := fmt.Sprintf(`Bonjour %s,

Un chauffeur a été assigné à votre réservation.

Détails du chauffeur :
- Nom : %s
- Téléphone : %s
- Véhicule : %s

Détails de votre course :
- Départ : %s
- Destination : %s
- Heure prévue : %s

Votre chauffeur vous contactera directement si nécessaire.

%s
`, customerName(b), b.Driver.Name, b.Driver.PhoneNumber, models.VehicleSummary(b.Driver.VehicleInfo),
		b.PickupAddress, b.DestinationAddress, utils.FormatFrench(b.ScheduledTime), signature)

	return Email{
		To:      []string{b.User.Email},
		Subject: "Chauffeur assigné - Réservation #" + b.ConfirmationNumber,
		Body:    body,
	}, true
}

// DriverOfferEmail offers a new trip to a driver.
func DriverOfferEmail(d models.Driver, b models.Booking) Email {
	body := fmt.Sprintf(`Bonjour %s,

Une nouvelle course est disponible :

Détails :
- Départ : %s
- Destination : %s
- Heure prévue : %s
- Prix estimé : %s
- Client : %s

Pour accepter cette course, veuillez contacter la centrale ou répondre via Telegram.

%s
`, d.Name, b.PickupAddress, b.DestinationAddress, utils.FormatFrench(b.ScheduledTime),
		price(b.EstimatedPrice), customerName(b), signature)

	return Email{
		To:      []string{d.Email},
		Subject: "Nouvelle course disponible - " + b.PickupAddress,
		Body:    body,
	}
}

const (
	CallbackAccept = "booking_accept_"
	CallbackRefuse = "booking_refuse_"
	CallbackRoute  = "booking_route_"
)

func decisionRow(bookingID int64) []InlineButton {
	return []InlineButton{
		{Text: "✅ Accepter", CallbackData: fmt.Sprintf("%s%d", CallbackAccept, bookingID)},
		{Text: "❌ Refuser", CallbackData: fmt.Sprintf("%s%d", CallbackRefuse, bookingID)},
	}
}

// DriverOfferTelegram is the offer message with accept, refuse and route buttons.
func DriverOfferTelegram(b models.Booking) (string, *InlineKeyboard) {
	text := fmt.Sprintf(`🚖 *NOUVELLE COURSE DISPONIBLE*

📍 *Départ :* %s
🎯 *Destination :* %s
⏰ *Heure prévue :* %s
💰 *Prix estimé :* %s

👤 *Client :* %s
📱 *Contact :* %s

🔔 *Répondez rapidement pour augmenter vos chances !*`,
		b.PickupAddress, b.DestinationAddress, utils.FormatFrench(b.ScheduledTime),
		price(b.EstimatedPrice), customerName(b), customerPhone(b))

	kb := &InlineKeyboard{Rows: [][]InlineButton{
		decisionRow(b.ID),
		{{Text: "📍 Voir itinéraire", CallbackData: fmt.Sprintf("%s%d", CallbackRoute, b.ID)}},
	}}
	return text, kb
}

// MapsDirectionsURL links pickup to destination on Google Maps.
func MapsDirectionsURL(b models.Booking) string {
	return fmt.Sprintf("https://www.google.com/maps/dir/%v,%v/%v,%v",
		b.PickupLatitude, b.PickupLongitude, b.DestinationLatitude, b.DestinationLongitude)
}

func RouteTelegram(b models.Booking) (string, *InlineKeyboard) {
	text := fmt.Sprintf(`🗺️ *ITINÉRAIRE*

📍 *Départ :* %s
🎯 *Destination :* %s

🔗 [Ouvrir dans Google Maps](%s)

💡 *Conseil :* Vérifiez le trafic avant d'accepter !`,
		b.PickupAddress, b.DestinationAddress, MapsDirectionsURL(b))
	return text, &InlineKeyboard{Rows: [][]InlineButton{decisionRow(b.ID)}}
}

func AcceptedTelegram(d models.Driver, b models.Booking) string {
	return fmt.Sprintf(`✅ *COURSE ACCEPTÉE*

Merci %s ! Votre acceptation a été transmise à la centrale.

📋 *Détails :*
- Course #%s
- Départ : %s
- Destination : %s
- Prix : %s

⏳ *Prochaines étapes :*
1. La centrale va confirmer votre assignation
2. Vous recevrez les coordonnées client
3. Contactez le client si nécessaire

🚗 *Bonne course !*`, d.Name, b.ConfirmationNumber, b.PickupAddress, b.DestinationAddress, price(b.EstimatedPrice))
}

func RefusedTelegram(d models.Driver) string {
	return fmt.Sprintf("❌ Course refusée par %s.\n\nLa course reste disponible pour d'autres chauffeurs.", d.Name)
}

const (
	UnavailableTelegram   = "❌ Cette course n'est plus disponible."
	NotFoundTelegram      = "❌ Course introuvable."
	NotRegisteredCallback = "❌ Erreur : Vous n'êtes pas enregistré dans le système."
	CallbackErrorTelegram = "❌ Erreur lors du traitement de votre réponse."
	FallbackTelegram      = "🤖 Utilisez les commandes /start, /help ou /status pour interagir avec le bot."
)

func WelcomeTelegram(chatID int64) string {
	return fmt.Sprintf(`🚖 *Bienvenue sur French Driver !*

Bonjour ! Je suis le bot officiel pour les chauffeurs VTC.

Pour recevoir des notifications de courses, vous devez être enregistré dans notre système avec votre Chat ID : `+"`%d`"+`

📋 *Commandes disponibles :*
/help - Afficher cette aide
/status - Vérifier votre statut

💡 *Comment ça marche :*
1. Votre dispatcher vous enregistre avec ce Chat ID
2. Vous recevez des notifications de nouvelles courses
3. Vous pouvez accepter ou refuser directement ici`, chatID)
}

func HelpTelegram(chatID int64) string {
	return fmt.Sprintf(`🆘 *Aide French Driver Bot*

📋 *Commandes :*
/start - Démarrer et obtenir votre Chat ID
/help - Afficher cette aide
/status - Vérifier votre statut dans le système

🔔 *Notifications :*
- Vous recevez automatiquement les nouvelles courses
- Utilisez les boutons pour accepter ou refuser

⚙️ *Configuration :*
Pour activer les notifications, donnez ce Chat ID à votre dispatcheur :
`+"`%d`", chatID)
}

func StatusTelegram(d models.Driver, chatID string, total, active int) string {
	notif := "❌ Désactivées"
	if d.NotificationsEnabled {
		notif = "✅ Activées"
	}
	return fmt.Sprintf(`✅ *Statut : CONNECTÉ*

👤 *Informations :*
- Nom : %s
- Licence : %s
- Véhicule : %s

🔔 *Notifications :*
- Statut : %s
- Chat ID : `+"`%s`"+`

📊 *Statistiques :*
- Courses totales : %d
- Courses en cours : %d`, d.Name, d.LicenseNumber, models.VehicleSummary(d.VehicleInfo), notif, chatID, total, active)
}

func NotRegisteredTelegram(chatID string) string {
	return fmt.Sprintf(`❌ *Statut : NON CONNECTÉ*

Votre Chat ID `+"`%s`"+` n'est pas enregistré dans notre système.

📝 *Pour vous connecter :*
1. Donnez ce Chat ID à votre dispatcheur
2. Il vous enregistrera dans le système
3. Vous recevrez une confirmation`, chatID)
}
