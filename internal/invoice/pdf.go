// Package invoice renders purchase receipts as PDF documents.
// Rendering is a pure function of the purchase record, so requesting
// the same receipt twice yields an equivalent artifact.
package invoice

import (
    "bytes"
    "fmt"
    "time"

    "github.com/go-pdf/fpdf"
)

// Data holds the fields printed on a receipt.
type Data struct {
    TripID       uint64
    RouteDetails string
    SeatNumber   string
    UserID       uint64
    PricePerSeat float64
    PurchaseTime time.Time
}

// Render produces the one-page A4 ticket invoice: a centered header,
// the trip and purchase details, and a footer.
func Render(d Data) ([]byte, error) {
    pdf := fpdf.New("P", "mm", "A4", "")
    // Pin the document metadata to the purchase so re-rendering the
    // same receipt yields byte-identical output.
    pdf.SetCreationDate(d.PurchaseTime.UTC())
    pdf.SetModificationDate(d.PurchaseTime.UTC())
    pdf.SetMargins(20, 20, 20)
    pdf.AddPage()

    pdf.SetFont("Helvetica", "B", 20)
    pdf.CellFormat(0, 12, "Bus Ticket Invoice", "", 1, "C", false, 0, "")
    pdf.Ln(6)

    pdf.SetFont("Helvetica", "", 12)
    lines := []string{
        fmt.Sprintf("Trip ID: %d", d.TripID),
        fmt.Sprintf("Route: %s", d.RouteDetails),
        fmt.Sprintf("Seat Number: %s", d.SeatNumber),
        fmt.Sprintf("User ID: %d", d.UserID),
        fmt.Sprintf("Price: %.2f", d.PricePerSeat),
        fmt.Sprintf("Purchase Time: %s", d.PurchaseTime.UTC().Format(time.RFC3339)),
    }
    for _, line := range lines {
        pdf.CellFormat(0, 8, line, "", 1, "L", false, 0, "")
    }

    pdf.Ln(6)
    pdf.CellFormat(0, 8, "Thank you for your purchase!", "", 1, "C", false, 0, "")

    var buf bytes.Buffer
    if err := pdf.Output(&buf); err != nil {
        return nil, fmt.Errorf("render invoice: %w", err)
    }
    return buf.Bytes(), nil
}
