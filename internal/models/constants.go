package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

const (
	RoleAdmin  = "admin"
	RoleVendor = "vendor"
	RoleUser   = "user"
)

const (
	TransactionRental   = "rental"
	TransactionPurchase = "purchase"
)

const (
	AgreementActive    = "active"
	AgreementCompleted = "completed"
)

const (
	FeedbackPending    = "pending"
	FeedbackInProgress = "in-progress"
	FeedbackResolved   = "resolved"
	FeedbackClosed     = "closed"
)

const (
	// FSNWindowMonths is the trailing window of the turnover report.
	FSNWindowMonths = 6

	// FSNFastThreshold is the confirmed booking count from which a product is fast-moving.
	FSNFastThreshold = 5

	// TaxRatePercent applies to every transaction subtotal.
	TaxRatePercent = 15

	// DefaultPageSize for catalog listing.
	DefaultPageSize = 12

	// MaxPageSize caps catalog and admin listings.
	MaxPageSize = 100

	// DefaultCuratedLimit for top/new product lists.
	DefaultCuratedLimit = 6

	// MaxCalendarDays caps the availability calendar window.
	MaxCalendarDays = 92
)

// DateLayout is the wire and storage format of booking dates.
const DateLayout = "2006-01-02"
