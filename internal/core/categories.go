package core

// DefaultCategories is the seed set installed on first initialization.
func DefaultCategories() []Category {
	return []Category{
		{ID: "food", Name: "Food", Color: "#50E3C2", Icon: "fast-food"},
		{ID: "transport", Name: "Transportation", Color: "#5E5CE6", Icon: "car"},
		{ID: "entertainment", Name: "Entertainment", Color: "#FF6B6B", Icon: "film"},
		{ID: "shopping", Name: "Shopping", Color: "#FFCC5C", Icon: "cart"},
		{ID: "utilities", Name: "Utilities", Color: "#4DACF7", Icon: "flash"},
		{ID: "health", Name: "Health", Color: "#FF9FB1", Icon: "medical"},
		{ID: "education", Name: "Education", Color: "#A78BFA", Icon: "school"},
		{ID: "other_expense", Name: "Other Expense", Color: "#9CA3AF", Icon: "ellipsis-horizontal"},
		{ID: UncategorizedID, Name: "Uncategorized", Color: "#9CA3AF", Icon: "help-circle"},
	}
}
