package sqlite

// Schema DDL. seq fixes insertion order; item_id is the public ID.
const (
	createItems = `CREATE TABLE items (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    item_id TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    description TEXT NOT NULL,
    extra TEXT
);`
)

// schemaDDL lists the statements run on Attach, in order.
var schemaDDL = []string{
	createItems,
}

const (
	selectItemColumns = "SELECT item_id, name, description, extra FROM items"
	insertItem        = "INSERT INTO items (item_id, name, description, extra) VALUES (?, ?, ?, ?)"
	updateItem        = "UPDATE items SET name = ?, description = ?, extra = ? WHERE item_id = ?"
	deleteItem        = "DELETE FROM items WHERE item_id = ?"
)
