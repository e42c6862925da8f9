package models

import "time"

const (
	ServiceRequestOrdered = "Ordered Success"
	ServiceRequestDraft   = "draft"

	OrderStatusBooked = "booked"
	PaymentSuccess    = "success"
	PaymentPending    = "pending"
)

// TimeSlot is the visit window picked by the traveler.
type TimeSlot struct {
	Label     string `bson:"label" json:"label"`
	StartTime string `bson:"start_time" json:"startTime"`
	EndTime   string `bson:"end_time" json:"endTime"`
}

// CartItem is one priced line of a booking.
type CartItem struct {
	ItemID     string `bson:"item_id" json:"itemId"`
	Name       string `bson:"name" json:"name"`
	Quantity   int    `bson:"quantity" json:"quantity"`
	UnitPrice  int    `bson:"unit_price" json:"unitPrice"`
	TotalPrice int    `bson:"total_price" json:"totalPrice"`
}

// Pricing is the computed price breakdown stored on a service request.
type Pricing struct {
	CartTotal      int    `bson:"cart_total" json:"cartTotal"`
	ConvenienceFee int    `bson:"convenience_fee" json:"convenienceFee"`
	CouponCode     string `bson:"coupon_code,omitempty" json:"couponCode,omitempty"`
	CouponDiscount int    `bson:"coupon_discount" json:"couponDiscount"`
	DiscountAmount int    `bson:"discount_amount" json:"discountAmount"`
	TaxAmount      int    `bson:"tax_amount" json:"taxAmount"`
	TotalPayable   int    `bson:"total_payable" json:"totalPayable"`
}

type GuideDetails struct {
	GenderPreference  string `bson:"gender_preference" json:"genderPreference"`
	GuideCount        int    `bson:"guide_count" json:"guideCount"`
	IsForeignNational *bool  `bson:"-" json:"isForeignNational,omitempty"`
}

type BillingInfo struct {
	BillingAddress     string `bson:"billing_address" json:"billingAddress"`
	CompanyName        string `bson:"company_name" json:"companyName"`
	ContactEmail       string `bson:"contact_email" json:"contactEmail"`
	ContactPerson      string `bson:"contact_person" json:"contactPerson"`
	GSTNumber          string `bson:"gst_number" json:"gstNumber"`
	IsCorporateBooking bool   `bson:"is_corporate_booking" json:"isCorporateBooking"`
}

// BookingDetails is the payload an operator attaches to a status change.
type BookingDetails struct {
	UserID              string        `json:"userId"`
	UserUpdate          *UserUpdate   `json:"userUpdate,omitempty"`
	PaymentStatus       string        `json:"paymentStatus" validate:"oneof=success|pending|failed"`
	PaymentMethod       string        `json:"paymentMethod"`
	PaymentDetail       string        `json:"paymentDetail"`
	TransactionID       string        `json:"transactionId"`
	TypeOfService       string        `json:"typeOfService"`
	ServiceName         string        `json:"serviceName"`
	OtherSpecify        string        `json:"otherSpecify"`
	TravelerName        string        `json:"travelerName"`
	TravelerPhoneNumber string        `json:"travelerPhoneNumber"`
	TravelerFrom        string        `json:"travelerFrom"`
	IsForeignNational   *bool         `json:"isForeignNational,omitempty"`
	DateOfTravel        string        `json:"dateOfTravel"`
	TimeSlot            *TimeSlot     `json:"timeSlot,omitempty"`
	StartOTP            string        `json:"startOtp"`
	EndOTP              string        `json:"endOtp"`
	NumberOfTravelers   int           `json:"numberOfTravelers"`
	LanguagePreference  []string      `json:"languagePreference"`
	MonumentToVisit     string        `json:"monumentToVisit"`
	CartItems           []CartItem    `json:"cartItems"`
	Price               int           `json:"price"`
	Pricing             *Pricing      `json:"pricing,omitempty"`
	GuideDetails        *GuideDetails `json:"guideDetails,omitempty"`
	BillingInfo         *BillingInfo  `json:"billingInfo,omitempty"`
	AdditionalNotes     string        `json:"additionalNotes"`
	Commission          float64       `json:"commission"`
	VendorID            string        `json:"vendor_id"`
	VendorPrice         float64       `json:"vendor_price"`
}

// PaymentSucceeded reports whether the operator marked the booking paid.
func (b *BookingDetails) PaymentSucceeded() bool {
	return b != nil && b.PaymentStatus == PaymentSuccess
}

// ServiceRequest is the draft or paid booking derived from a tracking record.
type ServiceRequest struct {
	ID                  string       `bson:"_id" json:"id"`
	ServiceID           string       `bson:"serviceId" json:"serviceId"`
	UserID              string       `bson:"user_id" json:"user_id"`
	ChatID              string       `bson:"chat_id" json:"chat_id"`
	MagicWordUserID     string       `bson:"magic_word_user_id" json:"magic_word_user_id"`
	MagicWord           string       `bson:"magic_word" json:"magic_word"`
	Status              string       `bson:"status" json:"status"`
	TravelerName        string       `bson:"traveler_name" json:"traveler_name"`
	TravelerPhoneNumber string       `bson:"traveler_phone_number" json:"traveler_phone_number"`
	FromLocation        string       `bson:"from_location" json:"from_location"`
	DateOfTravel        string       `bson:"date_of_travel" json:"date_of_travel"`
	TimeSlot            TimeSlot     `bson:"time_slot" json:"time_slot"`
	StartOTP            string       `bson:"start_otp" json:"start_otp"`
	EndOTP              string       `bson:"end_otp" json:"end_otp"`
	NumberOfTravelers   int          `bson:"number_of_travelers" json:"number_of_travelers"`
	LanguagePreference  []string     `bson:"language_preference" json:"language_preference"`
	MonumentToVisit     string       `bson:"monument_to_visit" json:"monument_to_visit"`
	Cart                []CartItem   `bson:"cart" json:"cart"`
	ServiceTypes        []string     `bson:"service_types" json:"service_types"`
	GuideDetails        GuideDetails `bson:"guide_details" json:"guide_details"`
	Pricing             Pricing      `bson:"pricing" json:"pricing"`
	PaymentMethod       string       `bson:"payment_method" json:"payment_method"`
	PaymentStatus       string       `bson:"payment_status" json:"payment_status"`
	TransactionID       string       `bson:"transaction_id,omitempty" json:"transaction_id,omitempty"`
	BillingInfo         BillingInfo  `bson:"billing_info" json:"billing_info"`
	AdditionalNotes     string       `bson:"additional_notes,omitempty" json:"additional_notes,omitempty"`
	IsForeignNational   bool         `bson:"is_foreign_national" json:"is_foreign_national"`
	OrderID             string       `bson:"order_id,omitempty" json:"order_id,omitempty"`
	CreatedAt           time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time    `bson:"updated_at" json:"updated_at"`
}

// ServiceOrder is the confirmed booking with on-site OTPs.
type ServiceOrder struct {
	ID                string    `bson:"_id" json:"id"`
	OrderID           string    `bson:"order_id" json:"order_id"`
	UserID            string    `bson:"user_id" json:"user_id"`
	ChatID            string    `bson:"chat_id" json:"chat_id"`
	MagicWordUserID   string    `bson:"magic_word_user_id" json:"magic_word_user_id"`
	ServiceID         string    `bson:"service_id" json:"service_id"`
	DateOfService     string    `bson:"date_of_service" json:"date_of_service"`
	Status            string    `bson:"status" json:"status"`
	StartOTP          string    `bson:"start_otp" json:"start_otp"`
	EndOTP            string    `bson:"end_otp" json:"end_otp"`
	StartOTPVerified  bool      `bson:"start_otp_verified" json:"start_otp_verified"`
	EndOTPVerified    bool      `bson:"end_otp_verified" json:"end_otp_verified"`
	ItemID            string    `bson:"item_id" json:"item_id"`
	MonumentID        string    `bson:"monument_id" json:"monument_id"`
	ProductType       string    `bson:"product_type" json:"product_type"`
	Price             int       `bson:"price" json:"price"`
	CommissionAmount  float64   `bson:"commission_amount" json:"commission_amount"`
	CommissionPercent int       `bson:"commission_percent" json:"commission_percent"`
	PaymentStatus     string    `bson:"payment_status" json:"payment_status"`
	PaymentDetail     string    `bson:"payment_detail" json:"payment_detail"`
	VendorID          string    `bson:"vendor_id,omitempty" json:"vendor_id,omitempty"`
	VendorPrice       float64   `bson:"vendor_price" json:"vendor_price"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updated_at"`
}
