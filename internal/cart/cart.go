// Package cart holds the shopper's transient basket and turns it into a
// WhatsApp order message. Nothing here is persisted.
package cart

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/sitelangsirat/deswita-backend/internal/modules/content"
)

// Item is one cart line. Quantity is always positive.
type Item struct {
	content.Product
	Quantity int `json:"quantity"`
}

// Cart is an ordered list of lines, at most one per product id.
type Cart struct {
	items []Item
}

// Add puts one unit of p in the cart, merging with an existing line for
// the same product id.
func (c *Cart) Add(p content.Product) {
	for i := range c.items {
		if c.items[i].ID == p.ID {
			c.items[i].Quantity++
			return
		}
	}
	c.items = append(c.items, Item{Product: p, Quantity: 1})
}

// SetQuantity sets the quantity of the line for id. Values at or below
// zero remove the line.
func (c *Cart) SetQuantity(id string, qty int) {
	qty = max(qty, 0)
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Quantity = qty
		}
	}
	c.items = slices.DeleteFunc(c.items, func(it Item) bool { return it.Quantity <= 0 })
}

// Items returns a copy of the cart lines.
func (c *Cart) Items() []Item { return slices.Clone(c.items) }

// Count is the total number of units.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Total is the sum of price times quantity over all lines.
func (c *Cart) Total() int64 {
	var total int64
	for _, it := range c.items {
		total += it.Price * int64(it.Quantity)
	}
	return total
}

// Customer is the delivery information entered at checkout.
type Customer struct {
	Name    string
	Address string
	Note    string
}

// Message renders the order text sent to the cooperative.
func Message(customer Customer, items []Item) string {
	var b strings.Builder
	b.WriteString("Halo Desa Wisata Bunga Telang, saya ingin memesan:\n\n")
	b.WriteString("Data Pemesan:\n")
	fmt.Fprintf(&b, "Nama: %s\n", customer.Name)
	fmt.Fprintf(&b, "Alamat: %s\n", customer.Address)
	note := customer.Note
	if note == "" {
		note = "-"
	}
	fmt.Fprintf(&b, "Catatan: %s\n\n", note)
	b.WriteString("Pesanan:\n")

	var total int64
	lines := make([]string, 0, len(items))
	for _, it := range items {
		line := it.Price * int64(it.Quantity)
		total += line
		lines = append(lines, fmt.Sprintf("- %s (%dx) - Rp%s", it.Name, it.Quantity, Rupiah(line)))
	}
	b.WriteString(strings.Join(lines, "\n"))
	fmt.Fprintf(&b, "\n\nTotal: Rp%s\n\nMohon informasi pembayarannya. Terima kasih!", Rupiah(total))
	return b.String()
}

// CheckoutURL returns the wa.me link that opens a chat with phone and the
// order message prefilled.
func CheckoutURL(phone string, customer Customer, items []Item) string {
	text := strings.ReplaceAll(url.QueryEscape(Message(customer, items)), "+", "%20")
	return "https://wa.me/" + phone + "?text=" + text
}

// Rupiah formats an amount with dot thousands separators, e.g. 15.000.
func Rupiah(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := strconv.FormatInt(amount, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return b.String()
}
