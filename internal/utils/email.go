package utils

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"

	"xyz_store/internal/config"
	"xyz_store/internal/models"
)

// ProductLookup fournit le nom des produits cités dans l'e-mail
type ProductLookup interface {
	GetProduct(ctx context.Context, id uuid.UUID) (models.Product, error)
}

// OrderMailer envoie la confirmation de commande après paiement
type OrderMailer struct {
	cfg      config.SMTPConfig
	products ProductLookup
}

func NewOrderMailer(cfg config.SMTPConfig, products ProductLookup) *OrderMailer {
	return &OrderMailer{cfg: cfg, products: products}
}

func (m *OrderMailer) OrderPaid(ctx context.Context, order models.Order) error {
	msg, err := m.confirmationMessage(ctx, order)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", order.Email)
	return client.DialAndSendWithContext(ctx, msg)
}

func (m *OrderMailer) confirmationMessage(ctx context.Context, order models.Order) (*mail.Msg, error) {
	body, err := m.renderConfirmation(ctx, order)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, err
	}
	if err := msg.To(order.Email); err != nil {
		return nil, err
	}
	msg.Subject(fmt.Sprintf("✅ Commande %s confirmée", shortID(order.ID)))
	msg.SetBodyString(mail.TypeTextHTML, body)
	return msg, nil
}

type confirmationLine struct {
	Name      string
	Quantity  int
	UnitPrice string
	Total     string
}

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Confirmation de commande</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Confirmation de votre commande</h2>
		<p>Bonjour {{.FirstName}},</p>
		<p>Votre paiement ({{.PaymentID}}) a bien été reçu.</p>
		<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left;">Produit</th>
					<th style="padding: 10px; text-align: left;">Quantité</th>
					<th style="padding: 10px; text-align: left;">Prix unitaire</th>
					<th style="padding: 10px; text-align: left;">Total</th>
				</tr>
			</thead>
			<tbody>
			{{range .Lines}}<tr>
				<td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{.UnitPrice}} €</td><td>{{.Total}} €</td>
			</tr>{{end}}
			</tbody>
			<tfoot>
				<tr><td colspan="3" style="text-align: right; font-weight: bold;">Total :</td><td style="font-weight: bold;">{{.Total}} €</td></tr>
			</tfoot>
		</table>
		<p>Livraison : {{.Address}}, {{.PostalCode}} {{.City}}</p>
	</div>
</body>
</html>`))

func (m *OrderMailer) renderConfirmation(ctx context.Context, order models.Order) (string, error) {
	lines := make([]confirmationLine, 0, len(order.Items))
	for _, item := range order.Items {
		name := item.ProductID.String()
		if m.products != nil {
			if p, err := m.products.GetProduct(ctx, item.ProductID); err == nil {
				name = p.Name
			}
		}
		lines = append(lines, confirmationLine{
			Name:      name,
			Quantity:  item.Quantity,
			UnitPrice: item.Price.StringFixed(2),
			Total:     item.Cost().StringFixed(2),
		})
	}

	var buf bytes.Buffer
	err := confirmationTemplate.Execute(&buf, map[string]interface{}{
		"FirstName":  order.FirstName,
		"PaymentID":  order.PaymentID,
		"Lines":      lines,
		"Total":      order.TotalCost().StringFixed(2),
		"Address":    order.Address,
		"PostalCode": order.PostalCode,
		"City":       order.City,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
