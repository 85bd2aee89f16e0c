// Package printing renders order invoices to PDF.
//
// Invoices are produced in two steps: RenderInvoiceHTML fills the invoice
// template with order data, then a PDFRenderer prints the HTML through a
// headless Chrome instance driven by chromedp.
//
//	renderer, err := NewChromedpRenderer(&ChromedpConfig{DefaultTimeout: 30 * time.Second})
//	if err != nil {
//	    return err
//	}
//	defer renderer.Close()
//
//	html, err := RenderInvoiceHTML(invoice)
//	result, err := renderer.Render(ctx, &RenderRequest{HTML: html, Title: invoice.Number})
package printing
