package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"kassaBack/internal/models"
	"kassaBack/internal/services"
	"kassaBack/internal/telegram"
)

// Transport is what the bot handler needs from the messaging side: outbound
// delivery plus callback acknowledgement.
type Transport interface {
	services.Notifier
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
}

// LegalLinks are the documents shown in the consent gate.
type LegalLinks struct {
	PolicyURL     string
	OfferURL      string
	AdsConsentURL string
}

// PaymentDetails are the bank-transfer requisites rendered into payment
// instructions.
type PaymentDetails struct {
	Phone     string
	Recipient string
	Bank      string
}

// BotHandler routes inbound chat events to the services. Every branch ends
// with an answer to the initiating user; unexpected failures get a generic
// retry message instead of silence.
type BotHandler struct {
	Orders   *services.OrderService
	Consents *services.ConsentService
	Invoices *services.InvoiceService
	Client   Transport
	Logger   services.Logger

	ReviewerID int64
	Payment    PaymentDetails
	Legal      LegalLinks
}

// HandleUpdate processes one inbound update. Safe to call concurrently for
// distinct updates.
func (h *BotHandler) HandleUpdate(ctx context.Context, u telegram.Update) {
	switch {
	case u.CallbackQuery != nil:
		h.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		h.handleMessage(ctx, u.Message)
	}
}

func (h *BotHandler) handleMessage(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil {
		return
	}
	uid := msg.From.ID

	if file, ok := extractFile(msg); ok {
		if uid == h.ReviewerID {
			h.handleReviewerFile(ctx, file)
			return
		}
		h.handleBuyerReceipt(ctx, uid, file)
		return
	}

	if strings.HasPrefix(msg.Text, "/start") {
		buttons := [][]services.Button{{{Label: "✅ Согласен — перейти к оплате", Action: "consent_ok"}}}
		h.send(ctx, uid, consentText(h.Legal.PolicyURL, h.Legal.OfferURL, h.Legal.AdsConsentURL), buttons)
		return
	}

	h.send(ctx, uid, fallbackText, nil)
}

func (h *BotHandler) handleBuyerReceipt(ctx context.Context, uid int64, file models.FileRef) {
	_, _, err := h.Orders.SubmitReceipt(ctx, uid, file)
	switch {
	case err == nil:
		h.send(ctx, uid, receiptThanks, nil)
	case errors.Is(err, models.ErrNoArmedOrder):
		h.send(ctx, uid, receiptHint, nil)
	case errors.Is(err, models.ErrInvalidTransition):
		h.send(ctx, uid, decidedText, nil)
	default:
		h.Logger.Errorf("bot: receipt from %d: %v", uid, err)
		h.send(ctx, uid, retryText, nil)
	}
}

func (h *BotHandler) handleReviewerFile(ctx context.Context, file models.FileRef) {
	orderID, err := h.Invoices.Forward(ctx, file)
	switch {
	case err == nil:
		h.send(ctx, h.ReviewerID, fmt.Sprintf("Чек отправлен покупателю (заказ #%d). Запрос закрыт.", orderID), nil)
	case errors.Is(err, models.ErrRequestNotFound):
		// no open request: the file was not meant for forwarding
	default:
		h.Logger.Errorf("bot: forward invoice file: %v", err)
		h.send(ctx, h.ReviewerID, retryText, nil)
	}
}

func (h *BotHandler) handleCallback(ctx context.Context, q *telegram.CallbackQuery) {
	uid := q.From.ID
	action, arg := splitAction(q.Data)

	ack := func(text string, alert bool) {
		if err := h.Client.AnswerCallback(ctx, q.ID, text, alert); err != nil {
			h.Logger.Errorf("bot: answer callback %s: %v", q.ID, err)
		}
	}

	switch action {
	case "consent_ok":
		if err := h.Consents.Record(ctx, uid); err != nil {
			h.Logger.Errorf("bot: record consent for %d: %v", uid, err)
			ack(retryText, true)
			return
		}
		ack("", false)
		h.send(ctx, uid, promoText, nil)
		h.send(ctx, uid, "Выберите продукт для оформления заказа:", shopKeyboard())
		h.send(ctx, uid, aboutBots, nil)

	case "buy":
		ack("", false)
		h.handleBuy(ctx, uid, arg)

	case "send_receipt":
		orderID, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			ack("", false)
			return
		}
		_, err = h.Orders.ArmReceiptUpload(ctx, uid, orderID)
		switch {
		case err == nil:
			ack("", false)
			h.send(ctx, uid, uploadPrompt, nil)
		case errors.Is(err, models.ErrOrderNotFound):
			ack("", false)
			h.send(ctx, uid, orderGoneText, nil)
		case errors.Is(err, models.ErrInvalidTransition):
			ack(decidedText, true)
		default:
			h.Logger.Errorf("bot: arm receipt upload for order %s: %v", arg, err)
			ack(retryText, true)
		}

	case "confirm", "reject":
		h.handleDecision(ctx, q, action, arg, ack)

	case "request_invoice":
		orderID, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			ack("", false)
			return
		}
		err = h.Invoices.Request(ctx, uid, orderID)
		switch {
		case err == nil:
			ack(invoiceQueued, true)
		case errors.Is(err, models.ErrOrderNotFound):
			ack(orderGoneText, true)
		case errors.Is(err, models.ErrForwardSlotBusy):
			ack(slotBusyText, true)
		default:
			h.Logger.Errorf("bot: invoice request for order %d: %v", orderID, err)
			ack(retryText, true)
		}

	case "send_invoice":
		if uid != h.ReviewerID {
			ack(noRightsText, true)
			return
		}
		orderID, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			ack("", false)
			return
		}
		if err := h.Invoices.Reopen(ctx, orderID); err != nil {
			if errors.Is(err, models.ErrForwardSlotBusy) {
				ack(slotBusyText, true)
				return
			}
			h.Logger.Errorf("bot: reopen invoice request for order %d: %v", orderID, err)
			ack(retryText, true)
			return
		}
		ack("", false)
		text := fmt.Sprintf("Загрузка чека для клиента по заказу #%d.\nОтправьте документ/фото в этот чат — я перешлю покупателю.\nПосле отправки нажмите «Закрыть запрос».", orderID)
		buttons := [][]services.Button{{{Label: "✅ Закрыть запрос", Action: fmt.Sprintf("close_invoice:%d", orderID)}}}
		h.send(ctx, uid, text, buttons)

	case "close_invoice":
		if uid != h.ReviewerID {
			ack(noRightsText, true)
			return
		}
		orderID, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			ack("", false)
			return
		}
		if err := h.Invoices.Close(ctx, orderID); err != nil && !errors.Is(err, models.ErrRequestNotFound) {
			h.Logger.Errorf("bot: close invoice request for order %d: %v", orderID, err)
			ack(retryText, true)
			return
		}
		ack("", false)
		h.send(ctx, uid, fmt.Sprintf("Запрос на чек по заказу #%d закрыт.", orderID), nil)

	default:
		ack("", false)
	}
}

func (h *BotHandler) handleBuy(ctx context.Context, uid int64, code string) {
	order, product, err := h.Orders.Create(ctx, uid, code)
	switch {
	case errors.Is(err, models.ErrConsentRequired):
		h.send(ctx, uid, consentFirst, nil)
		return
	case errors.Is(err, models.ErrProductNotFound):
		h.send(ctx, uid, productMissing, nil)
		return
	case err != nil:
		h.Logger.Errorf("bot: create order for %d code %s: %v", uid, code, err)
		h.send(ctx, uid, retryText, nil)
		return
	}

	text := paymentInstructions(product.Title, order.Amount, order.ID, h.Payment.Phone, h.Payment.Recipient, h.Payment.Bank)
	buttons := [][]services.Button{
		{{Label: "📤 Отправить чек по этому заказу", Action: fmt.Sprintf("send_receipt:%d", order.ID)}},
		{{Label: "◀️ Назад", Action: "consent_ok"}},
	}
	h.send(ctx, uid, text, buttons)

	if err := h.Orders.MarkAwaitingReceipt(ctx, order.ID); err != nil {
		h.Logger.Errorf("bot: mark order %d awaiting receipt: %v", order.ID, err)
	}
}

func (h *BotHandler) handleDecision(ctx context.Context, q *telegram.CallbackQuery, action, arg string, ack func(string, bool)) {
	uid := q.From.ID
	orderID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		ack("", false)
		return
	}

	if action == "confirm" {
		_, err = h.Orders.Approve(ctx, uid, orderID)
	} else {
		err = h.Orders.Reject(ctx, uid, orderID)
	}
	switch {
	case err == nil:
		ack("", false)
		verdict := "подтверждён. Ссылки отправлены."
		if action == "reject" {
			verdict = "отклонён."
		}
		h.send(ctx, uid, fmt.Sprintf("Заказ #%d: %s", orderID, verdict), nil)
	case errors.Is(err, models.ErrForbidden):
		ack(noRightsText, true)
	case errors.Is(err, models.ErrOrderNotFound):
		ack(orderGoneText, true)
	case errors.Is(err, models.ErrInvalidTransition):
		ack(decidedText, true)
	default:
		h.Logger.Errorf("bot: %s order %d: %v", action, orderID, err)
		ack(retryText, true)
	}
}

func (h *BotHandler) send(ctx context.Context, chatID int64, text string, buttons [][]services.Button) {
	if err := h.Client.SendMessage(ctx, chatID, text, buttons); err != nil {
		h.Logger.Errorf("bot: send to %d: %v", chatID, err)
	}
}

func shopKeyboard() [][]services.Button {
	return [][]services.Button{
		{{Label: "Оплатить Бота №1", Action: "buy:unpack"}},
		{{Label: "Оплатить Бота №2", Action: "buy:copy"}},
		{{Label: "Оплатить Бота №3", Action: "buy:photo"}},
		{{Label: "Пакет 1+2", Action: "buy:b12"}},
		{{Label: "Пакет 1+3", Action: "buy:b13"}},
		{{Label: "Пакет 2+3", Action: "buy:b23"}},
		{{Label: "Пакет 1+2+3", Action: "buy:b123"}},
	}
}

func splitAction(data string) (string, string) {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

func extractFile(msg *telegram.Message) (models.FileRef, bool) {
	if len(msg.Photo) > 0 {
		return models.FileRef{ID: msg.Photo[len(msg.Photo)-1].FileID, Kind: models.FileKindPhoto}, true
	}
	if msg.Document != nil {
		return models.FileRef{ID: msg.Document.FileID, Kind: models.FileKindDocument}, true
	}
	return models.FileRef{}, false
}
