package rabbitmq

import (
	"github.com/streadway/amqp"

	"github.com/jarrod640-svg/pdfswift/internal/models"
)

// ReceiptPublisher публикует квитанции об оплате в очередь воркера.
type ReceiptPublisher struct {
	ch *amqp.Channel
}

// NewReceiptPublisher создает новый экземпляр ReceiptPublisher.
func NewReceiptPublisher(ch *amqp.Channel) *ReceiptPublisher {
	return &ReceiptPublisher{ch: ch}
}

// PublishReceipt отправляет квитанцию в exchange уведомлений.
func (p *ReceiptPublisher) PublishReceipt(receipt models.Receipt) error {
	return PublishMessage(p.ch, Exchange, "payment", receipt)
}
