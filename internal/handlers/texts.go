package handlers

import (
	"fmt"
)

const promoText = "🎁 Специальные стартовые цены\n" +
	"(только 2 дня)\n\n" +
	"🛠 Боты по отдельности\n" +
	"• Бот №1 «Распаковка + Анализ ЦА» — 2 990 ₽ → 1 890 ₽ (выгода 1 100 ₽)\n" +
	"• Бот №2 «Твой личный контент-помощник» — 5 490 ₽ → 2 490 ₽ (выгода 3 000 ₽)\n" +
	"• Бот №3 «Твой личный предметный фотограф» — 4 490 ₽ → 2 490 ₽ (выгода 2 000 ₽)\n\n" +
	"💎 Пакеты — ещё выгоднее\n" +
	"• 1+2 — 7 990 ₽ → 3 990 ₽ (выгода 4 000 ₽)\n" +
	"• 1+3 — 6 990 ₽ → 3 790 ₽ (выгода 3 200 ₽)\n" +
	"• 2+3 — 8 490 ₽ → 4 490 ₽ (выгода 4 000 ₽)\n" +
	"• 1+2+3 — 11 990 ₽ → 5 990 ₽ (выгода 6 000 ₽)\n\n" +
	"📌 После окончания акции цены вырастут."

const aboutBots = "Бот №1 «Распаковка + Анализ ЦА (JTBD)» — про понимание, что клиенты реально «покупают», и как под это подстроить позиционирование и контент.\n\n" +
	"Бот №2 «Твой личный контент-помощник» — контент-план, посты, Reels/Stories, визуальные подсказки на основе распаковки.\n\n" +
	"Бот №3 «Твой личный предметный фотограф» — генерирует продающие предметные фото из ваших снимков товара."

const (
	retryText      = "Что-то пошло не так. Попробуйте ещё раз."
	fallbackText   = "Нажмите /start."
	receiptHint    = "Чтобы отправить чек, сначала нажмите «📤 Отправить чек по этому заказу» под вашим заказом."
	receiptThanks  = "Спасибо! Чек отправлен на проверку. Обычно подтверждение занимает несколько минут."
	uploadPrompt   = "Загрузите чек в ответ (фото/скан или документ PDF). После проверки пришлём персональные ссылки."
	noRightsText   = "Нет прав."
	orderGoneText  = "Заказ не найден."
	decidedText    = "Заказ уже обработан."
	consentFirst   = "Сначала подтвердите согласие."
	slotBusyText   = "Сейчас обрабатывается другой запрос чека. Попробуйте чуть позже."
	invoiceQueued  = "Запрос на чек отправлен. Ждём файл от продавца."
	productMissing = "Продукт не найден."
)

func consentText(policyURL, offerURL, adsConsentURL string) string {
	return "Перед оплатой подтвердите согласие с условиями:\n" +
		fmt.Sprintf("• Политика конфиденциальности — %s\n", policyURL) +
		fmt.Sprintf("• Договор оферты — %s\n", offerURL) +
		fmt.Sprintf("• Согласие на получение рекламных материалов — %s\n\n", adsConsentURL) +
		"Нажимая «✅ Согласен — перейти к оплате», вы принимаете условия."
}

func paymentInstructions(title string, amount float64, orderID int64, phone, recipient, bank string) string {
	return fmt.Sprintf("🧾 %s\nСумма к оплате: %.2f ₽\n\n", title, amount) +
		fmt.Sprintf("Оплата по номеру телефона на карту %s:\n", bank) +
		fmt.Sprintf("• Номер: %s\n• Получатель: %s\n", phone, recipient) +
		fmt.Sprintf("• Комментарий к переводу: ORDER-%d\n\n", orderID) +
		"После оплаты вернитесь и нажмите «📤 Отправить чек по этому заказу»."
}
