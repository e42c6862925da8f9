package services

import (
	"sort"
	"strings"
	"time"

	"github.com/Digitallaureate/kabirFirstBackend/models"
)

const (
	convenienceFeeRate = 0.05
	taxRate            = 0.18
	commissionPercent  = 5
	productTypeGuide   = "guide"
)

var serviceNames = map[string]string{
	"guide":        "Tour Guide Service",
	"photographer": "Photography Service",
	"blog":         "Blog/Postcard Service",
	"souvenir":     "Souvenir Package",
	"other":        "Other",
}

// serviceType strips an item suffix such as "guide_hindi" down to "guide".
func serviceType(itemID string) string {
	t := strings.ToLower(itemID)
	if i := strings.Index(t, "_"); i >= 0 {
		t = t[:i]
	}
	return t
}

// ServiceName maps an item or service id to its display name.
func ServiceName(itemID string) string {
	if name, ok := serviceNames[serviceType(itemID)]; ok {
		return name
	}
	return "Service"
}

// ComputePricing applies the convenience fee and tax to cartTotal. Fee and tax
// are truncated to whole rupees and the total never goes below zero.
func ComputePricing(cartTotal int, in *models.Pricing) models.Pricing {
	p := models.Pricing{
		CartTotal:      cartTotal,
		ConvenienceFee: int(float64(cartTotal) * convenienceFeeRate),
		TaxAmount:      int(float64(cartTotal) * taxRate),
	}
	if in != nil {
		p.CouponCode = in.CouponCode
		p.CouponDiscount = in.CouponDiscount
		p.DiscountAmount = in.DiscountAmount
	}
	total := p.CartTotal + p.ConvenienceFee + p.TaxAmount - p.CouponDiscount - p.DiscountAmount
	if total < 0 {
		total = 0
	}
	p.TotalPayable = total
	return p
}

// BuildCart normalizes the cart lines of a booking. Without lines the
// service type and price become a single line.
func BuildCart(d *models.BookingDetails) []models.CartItem {
	out := make([]models.CartItem, 0, len(d.CartItems))
	for _, item := range d.CartItems {
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
		if item.TotalPrice == 0 {
			item.TotalPrice = item.UnitPrice * item.Quantity
		}
		if item.Name == "" {
			item.Name = ServiceName(item.ItemID)
		}
		out = append(out, item)
	}
	if len(out) > 0 {
		return out
	}
	return []models.CartItem{{
		ItemID:     d.TypeOfService,
		Name:       ServiceName(d.TypeOfService),
		Quantity:   1,
		UnitPrice:  d.Price,
		TotalPrice: d.Price,
	}}
}

func cartTotal(d *models.BookingDetails, cart []models.CartItem) int {
	if d.Pricing != nil && d.Pricing.CartTotal > 0 {
		return d.Pricing.CartTotal
	}
	if d.Price > 0 {
		return d.Price
	}
	sum := 0
	for _, item := range cart {
		sum += item.TotalPrice
	}
	return sum
}

func serviceTypes(cart []models.CartItem) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, item := range cart {
		if item.ItemID == "" {
			continue
		}
		t := serviceType(item.ItemID)
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// isForeignNational prefers an explicit flag and otherwise treats anyone not
// travelling from India as foreign.
func isForeignNational(d *models.BookingDetails) bool {
	if d.GuideDetails != nil && d.GuideDetails.IsForeignNational != nil {
		return *d.GuideDetails.IsForeignNational
	}
	if d.IsForeignNational != nil {
		return *d.IsForeignNational
	}
	from := strings.ToLower(strings.TrimSpace(d.TravelerFrom))
	return from != "" && from != "india"
}

// BuildServiceRequest assembles the service request for a tracking record.
func BuildServiceRequest(id string, record *models.MagicWordRequest, d *models.BookingDetails, monumentTitle string, now time.Time) models.ServiceRequest {
	cart := BuildCart(d)
	pricing := ComputePricing(cartTotal(d, cart), d.Pricing)

	slot := models.TimeSlot{Label: "Custom"}
	if d.TimeSlot != nil {
		slot = *d.TimeSlot
		if slot.Label == "" {
			slot.Label = "Custom"
		}
	}

	guide := models.GuideDetails{GenderPreference: "Any", GuideCount: len(d.LanguagePreference)}
	if d.GuideDetails != nil && d.GuideDetails.GenderPreference != "" {
		guide.GenderPreference = d.GuideDetails.GenderPreference
	}
	if guide.GuideCount == 0 {
		guide.GuideCount = 1
	}

	var billing models.BillingInfo
	if d.BillingInfo != nil {
		billing = *d.BillingInfo
	}

	travelers := d.NumberOfTravelers
	if travelers <= 0 {
		travelers = 1
	}
	paymentStatus := d.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = models.PaymentPending
	}
	status := models.ServiceRequestDraft
	if d.PaymentSucceeded() {
		status = models.ServiceRequestOrdered
	}
	languages := d.LanguagePreference
	if languages == nil {
		languages = []string{}
	}

	return models.ServiceRequest{
		ID:                  id,
		ServiceID:           id,
		UserID:              record.UserID,
		ChatID:              record.ChatID,
		MagicWordUserID:     record.ID,
		MagicWord:           record.MagicWord,
		Status:              status,
		TravelerName:        d.TravelerName,
		TravelerPhoneNumber: d.TravelerPhoneNumber,
		FromLocation:        d.TravelerFrom,
		DateOfTravel:        d.DateOfTravel,
		TimeSlot:            slot,
		StartOTP:            d.StartOTP,
		EndOTP:              d.EndOTP,
		NumberOfTravelers:   travelers,
		LanguagePreference:  languages,
		MonumentToVisit:     monumentTitle,
		Cart:                cart,
		ServiceTypes:        serviceTypes(cart),
		GuideDetails:        guide,
		Pricing:             pricing,
		PaymentMethod:       d.PaymentMethod,
		PaymentStatus:       paymentStatus,
		TransactionID:       d.TransactionID,
		BillingInfo:         billing,
		AdditionalNotes:     d.AdditionalNotes,
		IsForeignNational:   isForeignNational(d),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// BuildServiceOrder turns a service request into a booked order. OTPs come
// from the booking details, then the request, then otp().
func BuildServiceOrder(id string, recordID string, sr *models.ServiceRequest, d *models.BookingDetails, otp func() string, now time.Time) models.ServiceOrder {
	if d == nil {
		d = &models.BookingDetails{}
	}
	pick := func(vals ...string) string {
		for _, v := range vals {
			if v != "" {
				return v
			}
		}
		return otp()
	}
	itemID := ""
	if len(sr.ServiceTypes) > 0 {
		itemID = sr.ServiceTypes[0]
	}
	paymentStatus := d.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = models.PaymentPending
	}

	return models.ServiceOrder{
		ID:                id,
		OrderID:           id,
		UserID:            sr.UserID,
		ChatID:            sr.ChatID,
		MagicWordUserID:   recordID,
		ServiceID:         sr.ID,
		DateOfService:     sr.DateOfTravel,
		Status:            models.OrderStatusBooked,
		StartOTP:          pick(d.StartOTP, sr.StartOTP),
		EndOTP:            pick(d.EndOTP, sr.EndOTP),
		ItemID:            itemID,
		MonumentID:        sr.MonumentToVisit,
		ProductType:       productTypeGuide,
		Price:             sr.Pricing.TotalPayable,
		CommissionAmount:  d.Commission,
		CommissionPercent: commissionPercent,
		PaymentStatus:     paymentStatus,
		PaymentDetail:     d.PaymentDetail,
		VendorID:          d.VendorID,
		VendorPrice:       d.VendorPrice,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
