package model

import "time"

// Tool is a marketplace item listed for sale by a user.  Tools are
// tagged with any number of categories and carry their own image set.
type Tool struct {
    ID           uint64    // tools.id
    OwnerID      uint64    // tools.owner_id
    Name         string    // tools.name
    Description  string    // tools.description
    PricePerUnit int64     // tools.price_per_unit
    LocationLink string    // tools.location_link
    Stock        int       // tools.stock
    CreatedAt    time.Time // tools.created_at
    UpdatedAt    time.Time // tools.updated_at
}

// Validate checks the client-writable fields of a tool.
func (t *Tool) Validate() ValidationErrors {
    ve := ValidationErrors{}
    if t.Name == "" {
        ve["name"] = "name is required"
    }
    if t.PricePerUnit < 0 {
        ve["price_per_unit"] = "the price cannot be negative"
    }
    if t.Stock < 0 {
        ve["stock"] = "stock cannot be negative"
    }
    if len(ve) == 0 {
        return nil
    }
    return ve
}

// ToolCategory is a shared tag tools can be filed under.
type ToolCategory struct {
    ID   uint64 // tool_categories.id
    Name string // tool_categories.name
}

// ToolImage stores the URL of one picture attached to a tool.
type ToolImage struct {
    ID        uint64 // tool_images.id
    ToolID    uint64 // tool_images.tool_id
    URL       string // tool_images.url
    IsPrimary bool   // tool_images.is_primary
}

// ToolReceipt records one purchase of a tool.  The amount is computed
// from the tool's unit price and the purchased quantity; the receipt
// code is generated server side.
type ToolReceipt struct {
    ID          uint64    // tool_receipts.id
    ToolID      uint64    // tool_receipts.tool_id
    UserID      uint64    // tool_receipts.user_id
    Amount      int64     // tool_receipts.amount
    ReceiptCode string    // tool_receipts.receipt_code
    IsPaid      bool      // tool_receipts.is_paid
    OrderDate   time.Time // tool_receipts.order_date
}
