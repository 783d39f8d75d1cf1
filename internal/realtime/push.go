package realtime

// PushNewSale announces a sale created through the API to sales subscribers
func (h *Hub) PushNewSale(sale any) int {
	return h.pushNewRecord(ChannelSales, MessageTypeNewSalesData, sale)
}

// PushNewCustomer announces a customer created through the API
func (h *Hub) PushNewCustomer(customer any) int {
	return h.pushNewRecord(ChannelCustomers, MessageTypeNewCustomerData, customer)
}

// PushNewProduct announces a product created through the API
func (h *Hub) PushNewProduct(product any) int {
	return h.pushNewRecord(ChannelProducts, MessageTypeNewProductData, product)
}

// PushReport sends a freshly generated report to analytics subscribers
func (h *Hub) PushReport(report any) int {
	return h.Publish(ChannelAnalytics, &OutgoingMessage{
		Type: MessageTypeAnalyticsUpdated,
		Data: AnalyticsUpdatedData{Data: report, Timestamp: h.now()},
	})
}

func (h *Hub) pushNewRecord(ch Channel, msgType MessageType, record any) int {
	return h.Publish(ch, &OutgoingMessage{
		Type: msgType,
		Data: NewRecordData{
			Data:             record,
			Timestamp:        h.now(),
			ConnectedClients: h.ConnectedCount(),
		},
	})
}
