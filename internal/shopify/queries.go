package shopify

// VariantInventoryQuery fetches the live stock of one variant
const VariantInventoryQuery = `
query variantInventory($id: ID!) {
  productVariant(id: $id) {
    id
    inventoryQuantity
    inventoryItem {
      tracked
    }
  }
}
`
