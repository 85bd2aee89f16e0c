package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/printing"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// InvoiceRenderer turns HTML into a PDF document
type InvoiceRenderer interface {
	Render(ctx context.Context, req *printing.RenderRequest) (*printing.RenderResult, error)
}

// InvoiceStorage archives rendered invoices
type InvoiceStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
}

const invoiceMarginMM = 12

// SetInvoiceRenderer enables invoice PDFs
func (s *Service) SetInvoiceRenderer(renderer InvoiceRenderer) {
	s.invoices = renderer
}

// SetInvoiceStorage archives every rendered invoice to object storage
func (s *Service) SetInvoiceStorage(storage InvoiceStorage) {
	s.invoiceStore = storage
}

// InvoiceForUser renders the invoice of one of the user's orders
func (s *Service) InvoiceForUser(ctx context.Context, userID, orderID uuid.UUID) (*InvoiceFile, error) {
	o, err := s.owned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return s.renderInvoice(ctx, o)
}

// Invoice renders the invoice of any order
func (s *Service) Invoice(ctx context.Context, orderID uuid.UUID) (*InvoiceFile, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.renderInvoice(ctx, o)
}

func (s *Service) renderInvoice(ctx context.Context, o *order.Order) (*InvoiceFile, error) {
	if s.invoices == nil {
		return nil, shared.NewDomainError("INVOICE_UNAVAILABLE", "Invoice rendering is not enabled")
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "invoice",
		telemetry.SpanAttrOrderID, o.ID.String(),
		telemetry.SpanAttrOrderNumber, o.Number)
	defer span.End()

	html, err := printing.RenderInvoiceHTML(s.invoiceData(ctx, o))
	if err != nil {
		return nil, telemetry.RecordError(span, err)
	}
	result, err := s.invoices.Render(ctx, &printing.RenderRequest{
		HTML:       html,
		Title:      "Invoice " + o.Number,
		MarginMM:   invoiceMarginMM,
		FooterHTML: printing.InvoiceFooter,
	})
	if err != nil {
		return nil, telemetry.RecordError(span, err)
	}

	file := &InvoiceFile{
		Filename:    o.Number + ".pdf",
		ContentType: "application/pdf",
		Data:        result.PDFData,
	}
	if s.invoiceStore != nil {
		key := "invoices/" + o.CreatedAt.UTC().Format("2006/01") + "/" + file.Filename
		if err := s.invoiceStore.Upload(ctx, key, file.Data, file.ContentType); err != nil {
			s.logger.Warn("Failed to archive invoice",
				zap.String("order_id", o.ID.String()),
				zap.String("key", key),
				zap.Error(err))
		} else {
			file.URL = s.invoiceStore.PublicURL(key)
		}
	}

	s.logger.Debug("Invoice rendered",
		zap.String("number", o.Number),
		zap.Int("pages", result.PageCount),
		zap.Duration("duration", result.RenderDuration))
	return file, nil
}

func (s *Service) invoiceData(ctx context.Context, o *order.Order) printing.InvoiceData {
	lines := make([]printing.InvoiceLine, len(o.Items))
	for i, it := range o.Items {
		lines[i] = printing.InvoiceLine{
			Name:        it.ProductName,
			SKU:         it.SKU,
			OptionLabel: it.OptionLabel,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			LineTotal:   it.LineTotal,
		}
	}
	data := printing.InvoiceData{
		CompanyName:     s.config.CompanyName,
		Number:          o.Number,
		Status:          string(o.Status),
		PaymentMethod:   string(o.PaymentMethod),
		IssuedAt:        o.CreatedAt,
		CustomerName:    o.ShippingAddress.RecipientName,
		ShippingAddress: o.ShippingAddress.String(),
		Lines:           lines,
		Subtotal:        o.Subtotal,
		DiscountCode:    o.DiscountCode,
		DiscountAmount:  o.DiscountAmount,
		PointsRedeemed:  o.PointsRedeemed,
		LoyaltyDiscount: o.LoyaltyDiscount,
		ShippingFee:     o.ShippingFee,
		Total:           o.Total,
		Notes:           o.Notes,
	}
	if data.IssuedAt.IsZero() {
		data.IssuedAt = time.Now()
	}
	if s.userRepo != nil {
		if user, err := s.userRepo.FindByID(ctx, o.UserID); err == nil {
			if name := user.FullName(); name != "" {
				data.CustomerName = name
			}
			data.CustomerEmail = user.Email
		}
	}
	return data
}
