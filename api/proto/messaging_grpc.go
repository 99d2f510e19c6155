package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

func init() {
	// Lets servers resolve the codec from the content-subtype without any
	// extra server option; client stubs force it per call.
	encoding.RegisterCodec(Codec{})
}

// Full method names for the MessagingService.
const (
	MessagingService_CreateAccount_FullMethodName         = "/messaging.MessagingService/CreateAccount"
	MessagingService_Login_FullMethodName                 = "/messaging.MessagingService/Login"
	MessagingService_ListAccounts_FullMethodName          = "/messaging.MessagingService/ListAccounts"
	MessagingService_DisplayConversation_FullMethodName   = "/messaging.MessagingService/DisplayConversation"
	MessagingService_SendMessage_FullMethodName           = "/messaging.MessagingService/SendMessage"
	MessagingService_ReadMessages_FullMethodName          = "/messaging.MessagingService/ReadMessages"
	MessagingService_DeleteMessage_FullMethodName         = "/messaging.MessagingService/DeleteMessage"
	MessagingService_DeleteAccount_FullMethodName         = "/messaging.MessagingService/DeleteAccount"
	MessagingService_GetUnreadMessages_FullMethodName     = "/messaging.MessagingService/GetUnreadMessages"
	MessagingService_GetMessageInformation_FullMethodName = "/messaging.MessagingService/GetMessageInformation"
	MessagingService_GetUsernameByID_FullMethodName       = "/messaging.MessagingService/GetUsernameByID"
	MessagingService_MarkMessageAsRead_FullMethodName     = "/messaging.MessagingService/MarkMessageAsRead"
	MessagingService_GetUserByUsername_FullMethodName     = "/messaging.MessagingService/GetUserByUsername"
	MessagingService_LeaderPing_FullMethodName            = "/messaging.MessagingService/LeaderPing"
)

// MessagingServiceClient is the client API for MessagingService.
type MessagingServiceClient interface {
	CreateAccount(ctx context.Context, in *CreateAccountRequest, opts ...grpc.CallOption) (*CreateAccountResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error)
	ListAccounts(ctx context.Context, in *ListAccountsRequest, opts ...grpc.CallOption) (*ListAccountsResponse, error)
	DisplayConversation(ctx context.Context, in *DisplayConversationRequest, opts ...grpc.CallOption) (*DisplayConversationResponse, error)
	SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error)
	ReadMessages(ctx context.Context, in *ReadMessagesRequest, opts ...grpc.CallOption) (*ReadMessagesResponse, error)
	DeleteMessage(ctx context.Context, in *DeleteMessageRequest, opts ...grpc.CallOption) (*DeleteMessageResponse, error)
	DeleteAccount(ctx context.Context, in *DeleteAccountRequest, opts ...grpc.CallOption) (*DeleteAccountResponse, error)
	GetUnreadMessages(ctx context.Context, in *GetUnreadMessagesRequest, opts ...grpc.CallOption) (*GetUnreadMessagesResponse, error)
	GetMessageInformation(ctx context.Context, in *GetMessageInformationRequest, opts ...grpc.CallOption) (*GetMessageInformationResponse, error)
	GetUsernameByID(ctx context.Context, in *GetUsernameByIDRequest, opts ...grpc.CallOption) (*GetUsernameByIDResponse, error)
	MarkMessageAsRead(ctx context.Context, in *MarkMessageAsReadRequest, opts ...grpc.CallOption) (*MarkMessageAsReadResponse, error)
	GetUserByUsername(ctx context.Context, in *GetUserByUsernameRequest, opts ...grpc.CallOption) (*GetUserByUsernameResponse, error)
	LeaderPing(ctx context.Context, in *LeaderPingRequest, opts ...grpc.CallOption) (*LeaderPingResponse, error)
}

type messagingServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewMessagingServiceClient returns a client stub bound to cc.
func NewMessagingServiceClient(cc grpc.ClientConnInterface) MessagingServiceClient {
	return &messagingServiceClient{cc}
}

func (c *messagingServiceClient) invoke(ctx context.Context, method string, in, out Message, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *messagingServiceClient) CreateAccount(ctx context.Context, in *CreateAccountRequest, opts ...grpc.CallOption) (*CreateAccountResponse, error) {
	out := new(CreateAccountResponse)
	if err := c.invoke(ctx, MessagingService_CreateAccount_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *messagingServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	out := new(LoginResponse)
	if err := c.invoke(ctx, MessagingService_Login_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *messagingServiceClient) ListAccounts(ctx context.Context, in *ListAccountsRequest, opts ...grpc.CallOption) (*ListAccountsResponse, error) {
	out := new(ListAccountsResponse)
	if err := c.invoke(ctx, MessagingService_ListAccounts_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *messagingServiceClient) DisplayConversation(ctx context.Context, in *DisplayConversationRequest, opts ...grpc.CallOption) (*DisplayConversationResponse, error) {
	out := new(DisplayConversationResponse)
	if err := c.invoke(ctx, MessagingService_DisplayConversation_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *messagingServiceClient) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error) {
	out := new(SendMessageResponse)
	if err := c.invoke(ctx, MessagingService_SendMessage_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *messagingServiceClient) ReadMessages(ctx context.Context, in *ReadMessagesRequest, opts ...grpc.CallOption) (*ReadMessagesResponse, error) {
	out := new(ReadMessagesResponse)
	if err := c.invoke(ctx, MessagingService_ReadMessages_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *messagingServiceClient) DeleteMessage(ctx context.Context, in *DeleteMessageRequest, opts ...grpc.CallOption) (*DeleteMessageResponse, error) {
	out := new(DeleteMessageResponse)
	if err := c.invoke(ctx, MessagingService_DeleteMessage_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *messagingServiceClient) DeleteAccount(ctx context.Context, in *DeleteAccountRequest, opts ...grpc.CallOption) (*DeleteAccountResponse, error) {
	out := new(DeleteAccountResponse)
	if err := c.invoke(ctx, MessagingService_DeleteAccount_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *messagingServiceClient) GetUnreadMessages(ctx context.Context, in *GetUnreadMessagesRequest, opts ...grpc.CallOption) (*GetUnreadMessagesResponse, error) {
	out := new(GetUnreadMessagesResponse)
	if err := c.invoke(ctx, MessagingService_GetUnreadMessages_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *messagingServiceClient) GetMessageInformation(ctx context.Context, in *GetMessageInformationRequest, opts ...grpc.CallOption) (*GetMessageInformationResponse, error) {
	out := new(GetMessageInformationResponse)
	if err := c.invoke(ctx, MessagingService_GetMessageInformation_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *messagingServiceClient) GetUsernameByID(ctx context.Context, in *GetUsernameByIDRequest, opts ...grpc.CallOption) (*GetUsernameByIDResponse, error) {
	out := new(GetUsernameByIDResponse)
	if err := c.invoke(ctx, MessagingService_GetUsernameByID_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *messagingServiceClient) MarkMessageAsRead(ctx context.Context, in *MarkMessageAsReadRequest, opts ...grpc.CallOption) (*MarkMessageAsReadResponse, error) {
	out := new(MarkMessageAsReadResponse)
	if err := c.invoke(ctx, MessagingService_MarkMessageAsRead_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *messagingServiceClient) GetUserByUsername(ctx context.Context, in *GetUserByUsernameRequest, opts ...grpc.CallOption) (*GetUserByUsernameResponse, error) {
	out := new(GetUserByUsernameResponse)
	if err := c.invoke(ctx, MessagingService_GetUserByUsername_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *messagingServiceClient) LeaderPing(ctx context.Context, in *LeaderPingRequest, opts ...grpc.CallOption) (*LeaderPingResponse, error) {
	out := new(LeaderPingResponse)
	if err := c.invoke(ctx, MessagingService_LeaderPing_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// MessagingServiceServer is the server API for MessagingService.
type MessagingServiceServer interface {
	CreateAccount(context.Context, *CreateAccountRequest) (*CreateAccountResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	ListAccounts(context.Context, *ListAccountsRequest) (*ListAccountsResponse, error)
	DisplayConversation(context.Context, *DisplayConversationRequest) (*DisplayConversationResponse, error)
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	ReadMessages(context.Context, *ReadMessagesRequest) (*ReadMessagesResponse, error)
	DeleteMessage(context.Context, *DeleteMessageRequest) (*DeleteMessageResponse, error)
	DeleteAccount(context.Context, *DeleteAccountRequest) (*DeleteAccountResponse, error)
	GetUnreadMessages(context.Context, *GetUnreadMessagesRequest) (*GetUnreadMessagesResponse, error)
	GetMessageInformation(context.Context, *GetMessageInformationRequest) (*GetMessageInformationResponse, error)
	GetUsernameByID(context.Context, *GetUsernameByIDRequest) (*GetUsernameByIDResponse, error)
	MarkMessageAsRead(context.Context, *MarkMessageAsReadRequest) (*MarkMessageAsReadResponse, error)
	GetUserByUsername(context.Context, *GetUserByUsernameRequest) (*GetUserByUsernameResponse, error)
	LeaderPing(context.Context, *LeaderPingRequest) (*LeaderPingResponse, error)
}

// RegisterMessagingServiceServer registers srv on s.
func RegisterMessagingServiceServer(s grpc.ServiceRegistrar, srv MessagingServiceServer) {
	s.RegisterService(&MessagingService_ServiceDesc, srv)
}

func unaryHandler[Req any, Resp any](
	fullMethod string,
	call func(MessagingServiceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MessagingServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(MessagingServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// MessagingService_ServiceDesc is the grpc.ServiceDesc for MessagingService.
var MessagingService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "messaging.MessagingService",
	HandlerType: (*MessagingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateAccount",
			Handler:    unaryHandler(MessagingService_CreateAccount_FullMethodName, MessagingServiceServer.CreateAccount),
		},
		{
			MethodName: "Login",
			Handler:    unaryHandler(MessagingService_Login_FullMethodName, MessagingServiceServer.Login),
		},
		{
			MethodName: "ListAccounts",
			Handler:    unaryHandler(MessagingService_ListAccounts_FullMethodName, MessagingServiceServer.ListAccounts),
		},
		{
			MethodName: "DisplayConversation",
			Handler:    unaryHandler(MessagingService_DisplayConversation_FullMethodName, MessagingServiceServer.DisplayConversation),
		},
		{
			MethodName: "SendMessage",
			Handler:    unaryHandler(MessagingService_SendMessage_FullMethodName, MessagingServiceServer.SendMessage),
		},
		{
			MethodName: "ReadMessages",
			Handler:    unaryHandler(MessagingService_ReadMessages_FullMethodName, MessagingServiceServer.ReadMessages),
		},
		{
			MethodName: "DeleteMessage",
			Handler:    unaryHandler(MessagingService_DeleteMessage_FullMethodName, MessagingServiceServer.DeleteMessage),
		},
		{
			MethodName: "DeleteAccount",
			Handler:    unaryHandler(MessagingService_DeleteAccount_FullMethodName, MessagingServiceServer.DeleteAccount),
		},
		{
			MethodName: "GetUnreadMessages",
			Handler:    unaryHandler(MessagingService_GetUnreadMessages_FullMethodName, MessagingServiceServer.GetUnreadMessages),
		},
		{
			MethodName: "GetMessageInformation",
			Handler:    unaryHandler(MessagingService_GetMessageInformation_FullMethodName, MessagingServiceServer.GetMessageInformation),
		},
		{
			MethodName: "GetUsernameByID",
			Handler:    unaryHandler(MessagingService_GetUsernameByID_FullMethodName, MessagingServiceServer.GetUsernameByID),
		},
		{
			MethodName: "MarkMessageAsRead",
			Handler:    unaryHandler(MessagingService_MarkMessageAsRead_FullMethodName, MessagingServiceServer.MarkMessageAsRead),
		},
		{
			MethodName: "GetUserByUsername",
			Handler:    unaryHandler(MessagingService_GetUserByUsername_FullMethodName, MessagingServiceServer.GetUserByUsername),
		},
		{
			MethodName: "LeaderPing",
			Handler:    unaryHandler(MessagingService_LeaderPing_FullMethodName, MessagingServiceServer.LeaderPing),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/proto/messaging.proto",
}
