// Package printing turns invoice document models into PDF bytes.
//
// FormatCurrency and AssetEmbedder feed the document builder. At render
// time DocumentHTMLRenderer lays a document.Model out as standalone HTML and
// a PDFRenderer (headless Chrome via chromedp, or wkhtmltopdf) prints it;
// ModelRenderer chains the two:
//
//	engine, err := NewPDFRenderer(EngineConfig{Engine: EngineChromedp}, logger)
//	if err != nil {
//	    return err
//	}
//	defer engine.Close()
//
//	pdf, err := NewModelRenderer(NewDocumentHTMLRenderer(), engine, logger).Render(ctx, model)
package printing
