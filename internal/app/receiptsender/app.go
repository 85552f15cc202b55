// Package receiptsender собирает воркер отправки квитанций: подключение
// к брокеру сообщений, SMTP-транспорт и потребителя очереди.
package receiptsender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/jarrod640-svg/pdfswift/internal/config"
	smtplib "github.com/jarrod640-svg/pdfswift/internal/lib/smtp"
	"github.com/jarrod640-svg/pdfswift/internal/rabbitmq"
	senderservice "github.com/jarrod640-svg/pdfswift/internal/services/sender"
)

// App воркер отправки квитанций об оплате.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New собирает воркер из конфигурации.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.ConnectRetries, cfg.RabbitMQ.ConnectDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.ReceiptQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}

	transport := smtplib.NewTransport(cfg, logger)
	senderService := senderservice.NewSenderService(transport, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребителя очереди квитанций и работает до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	for _, q := range rabbitmq.ReceiptQueues() {
		if err := rabbitmq.ConsumerMessage(ctx, a.ch, q.QueueName, a.senderService.SendPaymentReceipt); err != nil {
			a.logger.Error("failed to start queue consumer",
				slog.String("queue", q.QueueName), slog.Any("err", err))
			return err
		}
	}

	<-ctx.Done()
	a.logger.Info("receipt sender shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	return nil
}
